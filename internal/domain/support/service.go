package support

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidTransition = errors.New("invalid ticket status transition")

var validPriorities = map[string]bool{
	PriorityLow: true, PriorityNormal: true, PriorityHigh: true, PriorityUrgent: true,
}

// validTransitions lists the target statuses reachable from each status.
// Resolved and closed tickets can be reopened.
var validTransitions = map[string][]string{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusOpen, StatusResolved, StatusClosed},
	StatusResolved:   {StatusOpen, StatusClosed},
	StatusClosed:     {StatusOpen},
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service struct {
	tickets   TicketRepository
	resources ResourceRepository
	faqs      FAQRepository
}

func NewService(tickets TicketRepository, resources ResourceRepository, faqs FAQRepository) *Service {
	return &Service{tickets: tickets, resources: resources, faqs: faqs}
}

// Tickets

func validateTicket(t *Ticket) error {
	if !emailRe.MatchString(t.SubmitterEmail) {
		return fmt.Errorf("invalid submitter email")
	}
	if l := len(strings.TrimSpace(t.Subject)); l == 0 || l > 300 {
		return fmt.Errorf("subject must be between 1 and 300 characters")
	}
	if strings.TrimSpace(t.Body) == "" {
		return fmt.Errorf("body is required")
	}
	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
	if !validPriorities[t.Priority] {
		return fmt.Errorf("invalid priority: %s", t.Priority)
	}
	return nil
}

func (s *Service) CreateTicket(ctx context.Context, t *Ticket) error {
	if err := validateTicket(t); err != nil {
		return err
	}
	t.Status = StatusOpen
	return s.tickets.Create(ctx, t)
}

func (s *Service) GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// TransitionTicket moves a ticket to the given status, enforcing the
// transition graph. Resolving stamps resolved_at; reopening clears it.
func (s *Service) TransitionTicket(ctx context.Context, id uuid.UUID, status string) (*Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range validTransitions[t.Status] {
		if next == status {
			allowed = true
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, status)
	}
	t.Status = status
	switch status {
	case StatusResolved:
		now := time.Now().UTC()
		t.ResolvedAt = &now
	case StatusOpen:
		t.ResolvedAt = nil
	}
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) AssignTicket(ctx context.Context, id uuid.UUID, assignee *uuid.UUID) (*Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.AssigneeID = assignee
	if t.Status == StatusOpen && assignee != nil {
		t.Status = StatusInProgress
	}
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) SetTicketPriority(ctx context.Context, id uuid.UUID, priority string) (*Ticket, error) {
	if !validPriorities[priority] {
		return nil, fmt.Errorf("invalid priority: %s", priority)
	}
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Priority = priority
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) SearchTickets(ctx context.Context, params map[string]string, limit, offset int) ([]*Ticket, int, error) {
	return s.tickets.Search(ctx, params, limit, offset)
}

// Crisis resources

func validateResource(cr *CrisisResource) error {
	if l := len(strings.TrimSpace(cr.Name)); l == 0 || l > 200 {
		return fmt.Errorf("name must be between 1 and 200 characters")
	}
	if strings.TrimSpace(cr.Region) == "" {
		return fmt.Errorf("region is required")
	}
	if (cr.Phone == nil || *cr.Phone == "") && (cr.URL == nil || *cr.URL == "") {
		return fmt.Errorf("at least one of phone or url is required")
	}
	return nil
}

func (s *Service) CreateResource(ctx context.Context, cr *CrisisResource) error {
	if err := validateResource(cr); err != nil {
		return err
	}
	return s.resources.Create(ctx, cr)
}

func (s *Service) GetResource(ctx context.Context, id uuid.UUID) (*CrisisResource, error) {
	return s.resources.GetByID(ctx, id)
}

func (s *Service) UpdateResource(ctx context.Context, cr *CrisisResource) error {
	if err := validateResource(cr); err != nil {
		return err
	}
	return s.resources.Update(ctx, cr)
}

func (s *Service) DeleteResource(ctx context.Context, id uuid.UUID) error {
	return s.resources.Delete(ctx, id)
}

func (s *Service) ListResources(ctx context.Context, region string, limit, offset int) ([]*CrisisResource, int, error) {
	return s.resources.List(ctx, region, limit, offset)
}

// FAQs

func validateFAQ(f *FAQ) error {
	if strings.TrimSpace(f.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if strings.TrimSpace(f.Answer) == "" {
		return fmt.Errorf("answer is required")
	}
	if f.Category == "" {
		f.Category = "general"
	}
	return nil
}

func (s *Service) CreateFAQ(ctx context.Context, f *FAQ) error {
	if err := validateFAQ(f); err != nil {
		return err
	}
	return s.faqs.Create(ctx, f)
}

func (s *Service) GetFAQ(ctx context.Context, id uuid.UUID) (*FAQ, error) {
	return s.faqs.GetByID(ctx, id)
}

func (s *Service) UpdateFAQ(ctx context.Context, f *FAQ) error {
	if err := validateFAQ(f); err != nil {
		return err
	}
	return s.faqs.Update(ctx, f)
}

func (s *Service) DeleteFAQ(ctx context.Context, id uuid.UUID) error {
	return s.faqs.Delete(ctx, id)
}

func (s *Service) ListFAQs(ctx context.Context, params map[string]string, limit, offset int) ([]*FAQ, int, error) {
	return s.faqs.List(ctx, params, limit, offset)
}
