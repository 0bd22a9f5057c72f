package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatsEmpty(t *testing.T) {
	st := ComputeStats(nil)
	assert.Zero(t, st.TotalParticipants)
	assert.Zero(t, st.TotalSchools)
	assert.Zero(t, st.AttendanceStats.AttendanceRate)
	assert.Zero(t, st.CertificateStats.IssuanceRate)
	assert.NotNil(t, st.ClassCounts)
}

func TestComputeStats(t *testing.T) {
	regs := []Registration{
		{SchoolName: "DAV Public School, Unit-8", Class: ClassIX, IsAttended: true, CertificateIssued: true},
		{SchoolName: " dav public school, unit-8 ", Class: ClassIX, IsAttended: true},
		{SchoolName: "Delhi Public School, Kalinga", Class: ClassXII},
	}
	st := ComputeStats(regs)

	assert.Equal(t, 3, st.TotalParticipants)
	assert.Equal(t, 2, st.TotalSchools)
	assert.Equal(t, map[Class]int{ClassIX: 2, ClassXII: 1}, st.ClassCounts)
	assert.Equal(t, AttendanceStats{Attended: 2, NotAttended: 1, AttendanceRate: 67}, st.AttendanceStats)
	assert.Equal(t, CertificateStats{Issued: 1, NotIssued: 2, IssuanceRate: 33}, st.CertificateStats)
}
