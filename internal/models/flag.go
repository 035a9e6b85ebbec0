package models

import "time"

type Flag struct {
	Value       string       `json:"value" db:"value"`
	Owner       string       `json:"owner" db:"owner"`
	Submissions []Submission `json:"submissions"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
}

// Submission 플래그 제출 기록 (append-only)
type Submission struct {
	Team        string    `json:"team" db:"team_name"`
	SubmittedAt time.Time `json:"submittedAt" db:"submitted_at"`
}

type CreateFlagRequest struct {
	Owner string `json:"owner" binding:"required"`
	Value string `json:"value"`
}

type SubmitFlagRequest struct {
	Flag string `json:"flag" binding:"required"`
}

// FlagCaptureNotification 공격 성공 시 플래그 소유 팀에게 보내는 알림
type FlagCaptureNotification struct {
	Type      string `json:"type"`
	Team      string `json:"team"`
	FlagOwner string `json:"flagOwner"`
	FlagValue string `json:"flagValue"`
	Timestamp string `json:"timestamp"`
}
