package registration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository persists registrations. Implementations translate their driver
// errors into ErrNotFound and ErrDuplicate.
type Repository interface {
	Insert(ctx context.Context, reg Registration) error
	Exists(ctx context.Context, key DuplicateKey) (bool, error)
	Find(ctx context.Context, f Filter) ([]Registration, int64, error)
	Get(ctx context.Context, id string) (Registration, error)
	SetFlag(ctx context.Context, id string, flag Field, value bool) error
	UpdateContact(ctx context.Context, id string, u ContactUpdate) error
	All(ctx context.Context) ([]Registration, error)
}

// Uploader stores a document under key and returns its public link.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Service coordinates validation, deduplication, uploads and queries.
type Service struct {
	repo     Repository
	uploader Uploader
	maxFile  int64
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a service backed by a repository and an uploader.
func NewService(repo Repository, uploader Uploader, maxFile int64, logger zerolog.Logger) *Service {
	if maxFile <= 0 {
		maxFile = DefaultMaxFile
	}
	return &Service{
		repo:     repo,
		uploader: uploader,
		maxFile:  maxFile,
		log:      logger.With().Str("component", "registration").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register handles the public form. The identity document is mandatory.
func (s *Service) Register(ctx context.Context, in Input, doc *Document) (Registration, error) {
	return s.create(ctx, in, doc, true, false)
}

// RegisterOnSite handles central registration at the venue: the document is
// optional and the participant is marked as attended.
func (s *Service) RegisterOnSite(ctx context.Context, in Input, doc *Document) (Registration, error) {
	return s.create(ctx, in, doc, false, true)
}

func (s *Service) create(ctx context.Context, in Input, doc *Document, requireDoc, attended bool) (Registration, error) {
	now := s.now()
	reg, problems := in.validate(now)

	var contentType string
	switch {
	case doc != nil:
		ct, docProblems := validateDocument(*doc, s.maxFile)
		problems = append(problems, docProblems...)
		contentType = ct
	case requireDoc:
		problems = append(problems, "idCard file is required")
	}
	if len(problems) > 0 {
		return Registration{}, invalid(problems...)
	}

	exists, err := s.repo.Exists(ctx, reg.Key())
	if err != nil {
		return Registration{}, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return Registration{}, ErrDuplicate
	}

	if doc != nil {
		key := documentKey(now, doc.Filename, contentType)
		url, err := s.uploader.Upload(ctx, key, contentType, doc.Data)
		if err != nil {
			return Registration{}, fmt.Errorf("upload id card: %w", err)
		}
		reg.IDCardURL = url
	}

	reg.ID = uuid.NewString()
	reg.IsAttended = attended
	reg.CreatedAt = now
	if err := s.repo.Insert(ctx, reg); err != nil {
		return Registration{}, err
	}

	s.log.Info().
		Str("id", reg.ID).
		Str("class", string(reg.Class)).
		Bool("onSite", attended).
		Msg("registration created")
	return reg, nil
}

// List returns one filtered, sorted page of registrations.
func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	f, page, limit, err := q.filter()
	if err != nil {
		return Page{}, err
	}
	regs, total, err := s.repo.Find(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []Registration{}
	}
	return Page{
		Registrations: regs,
		Total:         total,
		Page:          page,
		TotalPages:    totalPages(total, limit),
		Limit:         limit,
	}, nil
}

// Search is the attendance desk lookup by name, school or phone number.
func (s *Service) Search(ctx context.Context, text string) ([]Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Summary{}, nil
	}
	regs, _, err := s.repo.Find(ctx, Filter{
		Text:       text,
		TextFields: deskSearchFields,
		Limit:      deskSearchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("search registrations: %w", err)
	}
	out := make([]Summary, 0, len(regs))
	for _, r := range regs {
		out = append(out, r.Summarize())
	}
	return out, nil
}

// Get returns a single registration.
func (s *Service) Get(ctx context.Context, id string) (Registration, error) {
	return s.repo.Get(ctx, id)
}

// SetAttendance stores the attendance flag as given.
func (s *Service) SetAttendance(ctx context.Context, id string, attended bool) error {
	if err := s.repo.SetFlag(ctx, id, FieldIsAttended, attended); err != nil {
		return err
	}
	s.log.Info().Str("id", id).Bool("isAttended", attended).Msg("attendance updated")
	return nil
}

// SetCertificate stores the certificate flag as given. It is independent of
// attendance.
func (s *Service) SetCertificate(ctx context.Context, id string, issued bool) error {
	if err := s.repo.SetFlag(ctx, id, FieldCertificateIssued, issued); err != nil {
		return err
	}
	s.log.Info().Str("id", id).Bool("certificateIssued", issued).Msg("certificate updated")
	return nil
}

// UpdateContact edits the student name and phone numbers. Numbers must
// already carry the +91 prefix.
func (s *Service) UpdateContact(ctx context.Context, id string, u ContactUpdate) error {
	u.StudentName = strings.TrimSpace(u.StudentName)
	if u.StudentName == "" || strings.TrimSpace(u.MobileNumber) == "" {
		return invalid("Student name and mobile number are required")
	}

	var problems []string
	if len(u.StudentName) > maxNameLength {
		problems = append(problems, "studentName is too long")
	}
	phone, ok := prefixedPhone(u.MobileNumber)
	if !ok {
		problems = append(problems, "Mobile number should start with +91 followed by 10 digits")
	}
	u.MobileNumber = phone
	if u.AltMobileNumber != nil && *u.AltMobileNumber != "" {
		alt, ok := prefixedPhone(*u.AltMobileNumber)
		if !ok {
			problems = append(problems, "Alternate mobile number should start with +91 followed by 10 digits")
		}
		u.AltMobileNumber = &alt
	}
	if len(problems) > 0 {
		return invalid(problems...)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	renamed := current
	renamed.StudentName = u.StudentName
	if !renamed.Key().Equal(current.Key()) {
		exists, err := s.repo.Exists(ctx, renamed.Key())
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			return ErrDuplicate
		}
	}

	if err := s.repo.UpdateContact(ctx, id, u); err != nil {
		return err
	}
	s.log.Info().Str("id", id).Msg("contact details updated")
	return nil
}

func prefixedPhone(s string) (string, bool) {
	if !strings.HasPrefix(s, phonePrefix) {
		return "", false
	}
	return NormalizePhone(s)
}

// Stats scans the whole collection and aggregates it.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	regs, err := s.repo.All(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load registrations: %w", err)
	}
	return ComputeStats(regs), nil
}
