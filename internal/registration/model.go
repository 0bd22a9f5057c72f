package registration

import "time"

// Class is one of the grade labels the competition accepts.
type Class string

const (
	ClassVII  Class = "VII"
	ClassVIII Class = "VIII"
	ClassIX   Class = "IX"
	ClassX    Class = "X"
	ClassXI   Class = "XI"
	ClassXII  Class = "XII"
)

// Classes lists the accepted grades in ascending order.
var Classes = []Class{ClassVII, ClassVIII, ClassIX, ClassX, ClassXI, ClassXII}

// ParseClass returns the class for a label such as "IX".
func ParseClass(s string) (Class, bool) {
	for _, c := range Classes {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Registration is one participant's signup.
type Registration struct {
	ID                string    `json:"_id" bson:"_id"`
	StudentName       string    `json:"studentName" bson:"studentName"`
	SchoolName        string    `json:"schoolName" bson:"schoolName"`
	Class             Class     `json:"class" bson:"class"`
	DOB               time.Time `json:"dob" bson:"dob"`
	Email             string    `json:"email,omitempty" bson:"email,omitempty"`
	MobileNumber      string    `json:"mobileNumber" bson:"mobileNumber"`
	AltMobileNumber   string    `json:"altMobileNumber,omitempty" bson:"altMobileNumber,omitempty"`
	IDCardURL         string    `json:"idCardUrl" bson:"idCardUrl"`
	IsAttended        bool      `json:"isAttended" bson:"isAttended"`
	CertificateIssued bool      `json:"certificateIssued" bson:"certificateIssued"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
}

// Key returns the identity tuple that must be unique across registrations.
func (r Registration) Key() DuplicateKey {
	return DuplicateKey{
		StudentName: r.StudentName,
		SchoolName:  r.SchoolName,
		Class:       r.Class,
		DOB:         r.DOB,
	}
}

// DuplicateKey identifies a participant independent of the generated id.
type DuplicateKey struct {
	StudentName string
	SchoolName  string
	Class       Class
	DOB         time.Time
}

// Equal compares keys, treating dates as instants.
func (k DuplicateKey) Equal(o DuplicateKey) bool {
	return k.StudentName == o.StudentName &&
		k.SchoolName == o.SchoolName &&
		k.Class == o.Class &&
		k.DOB.Equal(o.DOB)
}

// Summary is the projection used by the attendance desk search.
type Summary struct {
	ID                string `json:"_id"`
	StudentName       string `json:"studentName"`
	SchoolName        string `json:"schoolName"`
	Class             Class  `json:"class"`
	MobileNumber      string `json:"mobileNumber"`
	AltMobileNumber   string `json:"altMobileNumber,omitempty"`
	IDCardURL         string `json:"idCardUrl"`
	IsAttended        bool   `json:"isAttended"`
	CertificateIssued bool   `json:"certificateIssued"`
}

// Summarize projects a registration for search results.
func (r Registration) Summarize() Summary {
	return Summary{
		ID:                r.ID,
		StudentName:       r.StudentName,
		SchoolName:        r.SchoolName,
		Class:             r.Class,
		MobileNumber:      r.MobileNumber,
		AltMobileNumber:   r.AltMobileNumber,
		IDCardURL:         r.IDCardURL,
		IsAttended:        r.IsAttended,
		CertificateIssued: r.CertificateIssued,
	}
}

// Field names a stored attribute; values match the document keys.
type Field string

const (
	FieldStudentName       Field = "studentName"
	FieldSchoolName        Field = "schoolName"
	FieldClass             Field = "class"
	FieldDOB               Field = "dob"
	FieldEmail             Field = "email"
	FieldMobileNumber      Field = "mobileNumber"
	FieldAltMobileNumber   Field = "altMobileNumber"
	FieldCreatedAt         Field = "createdAt"
	FieldIsAttended        Field = "isAttended"
	FieldCertificateIssued Field = "certificateIssued"
)

var sortable = map[Field]bool{
	FieldStudentName:       true,
	FieldSchoolName:        true,
	FieldClass:             true,
	FieldDOB:               true,
	FieldEmail:             true,
	FieldMobileNumber:      true,
	FieldCreatedAt:         true,
	FieldIsAttended:        true,
	FieldCertificateIssued: true,
}

// Admin table search covers name, school and email; the attendance desk
// searches phone numbers instead of email.
var (
	listSearchFields = []Field{FieldStudentName, FieldSchoolName, FieldEmail}
	deskSearchFields = []Field{FieldStudentName, FieldSchoolName, FieldMobileNumber, FieldAltMobileNumber}
)

// ContactUpdate carries the editable contact fields. A nil AltMobileNumber
// leaves the stored value untouched.
type ContactUpdate struct {
	StudentName     string
	MobileNumber    string
	AltMobileNumber *string
}
