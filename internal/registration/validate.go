package registration

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	phonePrefix    = "+91 "
	maxNameLength  = 200
	DefaultMaxFile = 5 << 20
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

	allowedDocumentTypes = []string{"image/jpeg", "image/png", "application/pdf"}
)

// Input is the raw form submitted for a new registration.
type Input struct {
	StudentName     string `form:"studentName"`
	SchoolName      string `form:"schoolName"`
	Class           string `form:"class"`
	DOB             string `form:"dob"`
	Email           string `form:"email"`
	MobileNumber    string `form:"mobileNumber"`
	AltMobileNumber string `form:"altMobileNumber"`
}

// Document is an uploaded identity document.
type Document struct {
	Filename string
	Data     []byte
}

// validate normalises the input into a registration and collects problems.
func (in Input) validate(now time.Time) (Registration, []string) {
	var problems []string
	reg := Registration{
		StudentName: strings.TrimSpace(in.StudentName),
		SchoolName:  strings.TrimSpace(in.SchoolName),
		Email:       strings.TrimSpace(in.Email),
	}

	if reg.StudentName == "" {
		problems = append(problems, "studentName is required")
	} else if len(reg.StudentName) > maxNameLength {
		problems = append(problems, "studentName is too long")
	}
	if reg.SchoolName == "" {
		problems = append(problems, "schoolName is required")
	} else if len(reg.SchoolName) > maxNameLength {
		problems = append(problems, "schoolName is too long")
	}

	if c, ok := ParseClass(strings.TrimSpace(in.Class)); ok {
		reg.Class = c
	} else {
		problems = append(problems, "class must be one of VII, VIII, IX, X, XI, XII")
	}

	if dob, err := ParseDOB(in.DOB); err != nil {
		problems = append(problems, err.Error())
	} else if dob.After(now) {
		problems = append(problems, "dob cannot be in the future")
	} else {
		reg.DOB = dob
	}

	if reg.Email != "" && !emailPattern.MatchString(reg.Email) {
		problems = append(problems, "email is not valid")
	}

	if phone, ok := NormalizePhone(in.MobileNumber); ok {
		reg.MobileNumber = phone
	} else {
		problems = append(problems, "mobileNumber must be 10 digits")
	}
	if strings.TrimSpace(in.AltMobileNumber) != "" {
		if phone, ok := NormalizePhone(in.AltMobileNumber); ok {
			reg.AltMobileNumber = phone
		} else {
			problems = append(problems, "altMobileNumber must be 10 digits")
		}
	}

	return reg, problems
}

// ParseDOB accepts an RFC 3339 timestamp (as sent by browsers) or a plain date.
func ParseDOB(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("dob is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("dob must be a date")
}

// NormalizePhone returns the canonical "+91 XXXXXXXXXX" form of an Indian
// mobile number. A leading +91 or 91 country code is accepted.
func NormalizePhone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	hasCode := strings.HasPrefix(s, "+91")
	if hasCode {
		s = s[len("+91"):]
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if !hasCode && len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) != 10 {
		return "", false
	}
	return phonePrefix + digits, true
}

// validateDocument checks size and sniffed type, returning the content type.
func validateDocument(doc Document, maxBytes int64) (string, []string) {
	if len(doc.Data) == 0 {
		return "", []string{"idCard file is empty"}
	}
	if int64(len(doc.Data)) > maxBytes {
		return "", []string{fmt.Sprintf("idCard must be smaller than %dMB", maxBytes>>20)}
	}
	detected := mimetype.Detect(doc.Data)
	for _, allowed := range allowedDocumentTypes {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", []string{"idCard must be a JPG, PNG or PDF file"}
}

// documentKey builds the object key for an uploaded document.
func documentKey(at time.Time, filename, contentType string) string {
	name := unsafeFileChars.ReplaceAllString(filepath.Base(filename), "-")
	name = strings.Trim(name, ".-")
	if name == "" {
		name = "id-card" + extensionFor(contentType)
	}
	return fmt.Sprintf("id-cards/%d-%s", at.UnixMilli(), name)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}
