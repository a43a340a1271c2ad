// Package domain holds the shared data shapes of the matching engine. None of
// these types are persisted by the engine itself; jobs and candidates are
// owned by external stores and match results live only in the result cache.
package domain

import "time"

// OpenToWork is the sentinel current-title meaning a candidate has no fixed
// title. It suppresses the hidden-gem heuristic, which compares titles.
const OpenToWork = "Open to Work"

// Job is a single posting. Immutable during a scoring pass.
type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	EmploymentType  string    `json:"type"`
	RequiredSkills  []string  `json:"requiredSkills"`
	PreferredSkills []string  `json:"preferredSkills"`
	ExperienceYears int       `json:"experienceRequired"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"postedAt"`
}

// Candidate is a single profile. Immutable during a scoring pass.
type Candidate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Skills     []string `json:"skills"`
	Experience int      `json:"experience"`
	Title      string   `json:"title"`
	Bio        string   `json:"bio"`
}

// CandidateMatch is one scored candidate inside a MatchResult.
type CandidateMatch struct {
	CandidateID string   `json:"candidateId"`
	Name        string   `json:"name"`
	Score       int      `json:"matchPercentage"`
	Analysis    string   `json:"analysis"`
	Strengths   []string `json:"strengths"`
}

// MatchResult is the job→candidates outcome: up to three candidates ordered
// by descending score. ComputedAt marks when the result was produced and
// drives cache freshness.
type MatchResult struct {
	JobID      string           `json:"jobId"`
	Matches    []CandidateMatch `json:"matches"`
	ComputedAt time.Time        `json:"computedAt"`
}

// JobMatch is the candidate→jobs counterpart of CandidateMatch.
type JobMatch struct {
	JobID    string `json:"jobId"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Score    int    `json:"matchScore"`
	Analysis string `json:"analysis"`
}

// DiscoveryRecord is one job scored for a single candidate during discovery.
type DiscoveryRecord struct {
	JobID          string    `json:"id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location"`
	EmploymentType string    `json:"type"`
	MatchScore     int       `json:"matchScore"`
	HiddenGem      bool      `json:"isHiddenGem"`
	Applied        bool      `json:"isApplied"`
	Saved          bool      `json:"isSaved"`
	MatchedSkills  []string  `json:"matchedSkills"`
	MissingSkills  []string  `json:"missingSkills"`
	PostedAt       time.Time `json:"postedAt"`
}

// Pagination describes one page of discovery results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// SkillGap is one in-demand skill missing from a candidate's profile.
type SkillGap struct {
	Skill       string   `json:"skill"`
	Demand      int      `json:"demand"`
	Impact      string   `json:"impact"`
	ExampleJobs []string `json:"exampleJobs"`
}
