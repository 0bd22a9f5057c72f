package registration

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository keeps registrations in process memory. It backs local
// development and tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	regs []Registration
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, reg Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.regs {
		if existing.Key().Equal(reg.Key()) {
			return ErrDuplicate
		}
	}
	r.regs = append(r.regs, reg)
	return nil
}

func (r *MemoryRepository) Exists(_ context.Context, key DuplicateKey) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, existing := range r.regs {
		if existing.Key().Equal(key) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) Find(_ context.Context, f Filter) ([]Registration, int64, error) {
	r.mu.RLock()
	matched := make([]Registration, 0, len(r.regs))
	for _, reg := range r.regs {
		if memoryMatch(reg, f) {
			matched = append(matched, reg)
		}
	}
	r.mu.RUnlock()

	if f.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareField(matched[i], matched[j], f.SortBy)
			if f.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	total := int64(len(matched))
	if f.Skip >= total {
		return []Registration{}, total, nil
	}
	matched = matched[f.Skip:]
	if f.Limit > 0 && int64(len(matched)) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.regs {
		if reg.ID == id {
			return reg, nil
		}
	}
	return Registration{}, ErrNotFound
}

func (r *MemoryRepository) SetFlag(_ context.Context, id string, flag Field, value bool) error {
	return r.update(id, func(reg *Registration) {
		switch flag {
		case FieldIsAttended:
			reg.IsAttended = value
		case FieldCertificateIssued:
			reg.CertificateIssued = value
		}
	})
}

func (r *MemoryRepository) UpdateContact(_ context.Context, id string, u ContactUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var target *Registration
	for i := range r.regs {
		if r.regs[i].ID == id {
			target = &r.regs[i]
			break
		}
	}
	if target == nil {
		return ErrNotFound
	}
	key := target.Key()
	key.StudentName = u.StudentName
	for _, other := range r.regs {
		if other.ID != id && other.Key().Equal(key) {
			return ErrDuplicate
		}
	}
	return r.updateLocked(id, func(reg *Registration) {
		reg.StudentName = u.StudentName
		reg.MobileNumber = u.MobileNumber
		if u.AltMobileNumber != nil {
			reg.AltMobileNumber = *u.AltMobileNumber
		}
	})
}

func (r *MemoryRepository) All(_ context.Context) ([]Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, len(r.regs))
	copy(out, r.regs)
	return out, nil
}

func (r *MemoryRepository) update(id string, apply func(*Registration)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(id, apply)
}

func (r *MemoryRepository) updateLocked(id string, apply func(*Registration)) error {
	for i := range r.regs {
		if r.regs[i].ID == id {
			apply(&r.regs[i])
			return nil
		}
	}
	return ErrNotFound
}

func memoryMatch(reg Registration, f Filter) bool {
	if f.Class != "" && reg.Class != f.Class {
		return false
	}
	if f.Attended != nil && reg.IsAttended != *f.Attended {
		return false
	}
	if f.CertificateIssued != nil && reg.CertificateIssued != *f.CertificateIssued {
		return false
	}
	if f.Text == "" {
		return true
	}
	needle := strings.ToLower(f.Text)
	for _, field := range f.TextFields {
		if strings.Contains(strings.ToLower(textValue(reg, field)), needle) {
			return true
		}
	}
	return false
}

func textValue(reg Registration, field Field) string {
	switch field {
	case FieldStudentName:
		return reg.StudentName
	case FieldSchoolName:
		return reg.SchoolName
	case FieldClass:
		return string(reg.Class)
	case FieldEmail:
		return reg.Email
	case FieldMobileNumber:
		return reg.MobileNumber
	case FieldAltMobileNumber:
		return reg.AltMobileNumber
	}
	return ""
}

func compareField(a, b Registration, field Field) int {
	switch field {
	case FieldDOB:
		return a.DOB.Compare(b.DOB)
	case FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case FieldIsAttended:
		return compareBool(a.IsAttended, b.IsAttended)
	case FieldCertificateIssued:
		return compareBool(a.CertificateIssued, b.CertificateIssued)
	}
	return strings.Compare(textValue(a, field), textValue(b, field))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
