package registration

import (
	"math"
	"strings"
)

// Stats summarises the whole collection for the dashboard.
type Stats struct {
	TotalSchools      int              `json:"totalSchools"`
	TotalParticipants int              `json:"totalParticipants"`
	ClassCounts       map[Class]int    `json:"classCounts"`
	AttendanceStats   AttendanceStats  `json:"attendanceStats"`
	CertificateStats  CertificateStats `json:"certificateStats"`
}

type AttendanceStats struct {
	Attended       int `json:"attended"`
	NotAttended    int `json:"notAttended"`
	AttendanceRate int `json:"attendanceRate"`
}

type CertificateStats struct {
	Issued       int `json:"issued"`
	NotIssued    int `json:"notIssued"`
	IssuanceRate int `json:"issuanceRate"`
}

// ComputeStats aggregates counts over every registration given.
func ComputeStats(regs []Registration) Stats {
	s := Stats{
		TotalParticipants: len(regs),
		ClassCounts:       make(map[Class]int),
	}
	schools := make(map[string]struct{})
	for _, r := range regs {
		schools[strings.ToLower(strings.TrimSpace(r.SchoolName))] = struct{}{}
		s.ClassCounts[r.Class]++
		if r.IsAttended {
			s.AttendanceStats.Attended++
		} else {
			s.AttendanceStats.NotAttended++
		}
		if r.CertificateIssued {
			s.CertificateStats.Issued++
		} else {
			s.CertificateStats.NotIssued++
		}
	}
	s.TotalSchools = len(schools)
	s.AttendanceStats.AttendanceRate = percent(s.AttendanceStats.Attended, s.TotalParticipants)
	s.CertificateStats.IssuanceRate = percent(s.CertificateStats.Issued, s.TotalParticipants)
	return s
}

// percent is a rounded percentage; zero when total is zero.
func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
