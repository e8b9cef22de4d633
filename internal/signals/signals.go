// Package signals infers years of experience and a role category from text.
package signals

import (
	"regexp"
	"strconv"
	"strings"
)

// Role is a coarse role category inferred from a document.
type Role string

const (
	RoleLineProducing  Role = "LINE_PRODUCING"
	RoleCinematography Role = "CINEMATOGRAPHY"
	RoleColorGrading   Role = "COLOR_GRADING"
	RoleAdobePremiere  Role = "ADOBE_PREMIERE"
	RoleUnknown        Role = "UNKNOWN"
)

type roleIndicator struct {
	role    Role
	needles []string
}

// roleIndicators is checked top to bottom; the first hit decides the role.
var roleIndicators = []roleIndicator{
	{role: RoleLineProducing, needles: []string{"line producer", "lp"}},
	{role: RoleCinematography, needles: []string{"director of photography", "dop", "cinematograph"}},
	{role: RoleColorGrading, needles: []string{"colorist", "color grading"}},
	{role: RoleAdobePremiere, needles: []string{"premiere"}},
}

// \s in Go is ASCII only, so Unicode separators (NBSP from PDFs) are listed explicitly.
var yearsPattern = regexp.MustCompile(`(\d+)[\s\v\p{Z}\x{85}]+(?:years|yrs)`)

// GuessYears returns the number in the first "<N> years" or "<N> yrs" phrase,
// or 0 when there is none.
func GuessYears(text string) int {
	m := yearsPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0
	}

	years, err := strconv.Atoi(m[1])
	if err != nil {
		// Out of int range.
		return 0
	}

	return years
}

// PredictRole returns the first role whose indicator occurs in text.
func PredictRole(text string) Role {
	lowered := strings.ToLower(text)
	for _, indicator := range roleIndicators {
		for _, needle := range indicator.needles {
			if strings.Contains(lowered, needle) {
				return indicator.role
			}
		}
	}
	return RoleUnknown
}

// RoleMatch reports whether a resume role satisfies a job role.
// Two unknown roles never match.
func RoleMatch(resume, job Role) bool {
	return resume != RoleUnknown && resume == job
}

func (r Role) String() string {
	return string(r)
}
