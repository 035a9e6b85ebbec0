package models

// ScoringConfig 런타임 스코어링 설정 스냅샷.
// 프로세스 재시작 시 환경변수 기본값으로 돌아간다 (휘발성).
type ScoringConfig struct {
	SelfFlagPoints          int `json:"selfFlagPoints"`
	AttackPoints            int `json:"attackPoints"`
	DefensePenalty          int `json:"defensePenalty"`
	PassivePointsValue      int `json:"passivePointsValue"`
	PassivePointsInterval   int `json:"passivePointsInterval"`   // ms
	MaxSubmissionsPerWindow int `json:"maxSubmissionsPerWindow"`
	RateLimitWindow         int `json:"rateLimitWindow"` // ms
}

// ScoringConfigUpdate 부분 업데이트 요청.
// 포인터 필드라서 "값이 0" 과 "필드 생략" 을 구분한다.
type ScoringConfigUpdate struct {
	SelfFlagPoints          *int `json:"selfFlagPoints"`
	AttackPoints            *int `json:"attackPoints"`
	DefensePenalty          *int `json:"defensePenalty"`
	PassivePointsValue      *int `json:"passivePointsValue"`
	PassivePointsInterval   *int `json:"passivePointsInterval"`
	MaxSubmissionsPerWindow *int `json:"maxSubmissionsPerWindow"`
	RateLimitWindow         *int `json:"rateLimitWindow"`
}
