// Package cohort compares one resume against a peer group: ranking,
// averages, and the attributes most peers have that the student lacks.
package cohort

import "math"

// Threshold decides when an attribute counts as common in a group: it must
// appear in at least Share of the group and never fewer than Floor members.
type Threshold struct {
	Share float64 `json:"share" yaml:"share"`
	Floor int     `json:"floor" yaml:"floor"`
}

// MinCount is the number of group members that must carry an attribute
// for it to be common in a group of n.
func (t Threshold) MinCount(n int) int {
	// The epsilon keeps 10*0.4 from rounding up to 5.
	c := int(math.Ceil(float64(n)*t.Share - 1e-9))
	if c < t.Floor {
		c = t.Floor
	}
	return c
}

// Policy holds one threshold per compared attribute.
type Policy struct {
	Skills     Threshold `json:"skills" yaml:"skills"`
	Domains    Threshold `json:"domains" yaml:"domains"`
	Sections   Threshold `json:"sections" yaml:"sections"`
	Experience Threshold `json:"experience" yaml:"experience"`
}

// ComparatorPolicy is used by Compare: a skill is common once 40% of the
// cohort lists it.
var ComparatorPolicy = Policy{
	Skills:     Threshold{Share: 0.4},
	Domains:    Threshold{Share: 0.4},
	Sections:   Threshold{Share: 0.4},
	Experience: Threshold{Share: 0.4},
}

// GapPolicy is used by Gaps. Small groups need at least one member (two for
// project domains) before anything counts as common.
var GapPolicy = Policy{
	Skills:     Threshold{Share: 0.5, Floor: 1},
	Domains:    Threshold{Share: 0.4, Floor: 2},
	Sections:   Threshold{Share: 0.5, Floor: 1},
	Experience: Threshold{Share: 0.5, Floor: 1},
}
