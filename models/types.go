// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Photo type constants
const (
	PhotoInitial = "INITIAL"
	PhotoFinal   = "FINAL"
)

// Tier is a quantity tier for a food item or the cleanliness of a plate.
type Tier string

const (
	TierSimple Tier = "SIMPLE"
	TierDouble Tier = "DOUBLE"
	TierTriple Tier = "TRIPLE"
	TierDirty  Tier = "DIRTY" // cleanliness only
)

// Per-photo analysis status recorded in an AnalysisResult
const (
	AnalysisOK      = "ok"
	AnalysisFailed  = "failed"
	AnalysisNoPhoto = "no_photo"
)

// Duplicate photo policies
const (
	PhotoPolicyReplace = "replace"
	PhotoPolicyReject  = "reject"
)

// Device roles
const (
	RoleParticipant = "participant"
	RoleModerator   = "moderator"
)

// Platform constants
const (
	PlatformIOS     = "ios"
	PlatformMacOS   = "macos"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// CleanlinessItem is the item name under which the FINAL photo is scored.
const CleanlinessItem = "Limpeza"

// DefaultPollIntervalSeconds is how often clients are told to poll room status.
const DefaultPollIntervalSeconds = 3

// DefaultItems are seeded into every new room.
var DefaultItems = []string{
	"Pão", "Carne", "Salada", "Bacon", "Ovo",
	"Queijo", "Batata", "Batata com Bacon", CleanlinessItem,
}

// Request types

type CreateRoomRequest struct {
	Name          string `json:"name"`
	ModeratorName string `json:"moderator_name"`
}

type JoinRoomRequest struct {
	Name string `json:"name"`
}

// UploadPhotoRequest is the JSON alternative to a multipart upload,
// for photos already hosted elsewhere.
type UploadPhotoRequest struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type ManualScore struct {
	ItemID string `json:"item_id"`
	Value  Tier   `json:"value"`
}

type SubmitScoresRequest struct {
	ParticipantID string        `json:"participant_id"`
	Scores        []ManualScore `json:"scores"`
}

type UpdateSettingsRequest struct {
	CheatName           *string `json:"cheat_name"`
	PollIntervalSeconds *int    `json:"poll_interval_seconds"`
}

type CleanupRequest struct {
	CurrentRoomID string `json:"current_room_id"`
}

type RegisterDeviceRequest struct {
	Platform string `json:"platform"` // ios, macos, android, web
}

// Response types

type CreateRoomResponse struct {
	RoomID        string `json:"room_id"`
	InviteCode    string `json:"invite_code"`
	ModeratorKey  string `json:"moderator_key"`
	ParticipantID string `json:"participant_id"`
}

type JoinRoomResponse struct {
	ParticipantID string `json:"participant_id"`
	Message       string `json:"message"`
}

type UploadPhotoResponse struct {
	PhotoID  string `json:"photo_id"`
	Type     string `json:"type"`
	Replaced bool   `json:"replaced"`
	Message  string `json:"message"`
}

type DeletePhotoResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type SubmitScoresResponse struct {
	Message string  `json:"message"`
	Scores  []Score `json:"scores"`
}

type RevealStartedResponse struct {
	RoomID string `json:"room_id"`
	Status string `json:"status"`
}

// RevealStatusResponse is what every client polls to see the shared result.
// AIResults, Scoreboard and Winners are only populated once ScoresRevealed is true.
type RevealStatusResponse struct {
	RoomID              string             `json:"room_id"`
	AIAnalyzing         bool               `json:"ai_analyzing"`
	PollIntervalSeconds int                `json:"poll_interval_seconds"`
	ScoresRevealed      bool               `json:"scores_revealed"`
	ScoresRevealedAt    *time.Time         `json:"scores_revealed_at,omitempty"`
	AIResults           AIResults          `json:"ai_results"`
	Scoreboard          []ParticipantTotal `json:"scoreboard"`
	Winners             []string           `json:"winners"`
}

type AIStatusResponse struct {
	RoomID              string         `json:"room_id"`
	AIAnalyzing         bool           `json:"ai_analyzing"`
	AIAnalysisStartedAt *time.Time     `json:"ai_analysis_started_at,omitempty"`
	PollIntervalSeconds int            `json:"poll_interval_seconds"`
	Attempts            map[string]int `json:"attempts"`
	Log                 []string       `json:"log"`
	LastError           *string        `json:"last_error,omitempty"`
}

type CleanupStats struct {
	RemovedRooms        int64 `json:"removed_rooms"`
	RemovedParticipants int64 `json:"removed_participants"`
	RemovedPhotos       int64 `json:"removed_photos"`
	RemovedScores       int64 `json:"removed_scores"`
}

type CleanupResponse struct {
	Message string       `json:"message"`
	Stats   CleanupStats `json:"stats"`
}

type RoomSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
	IsActive   bool   `json:"is_active"`
}

type RegisterDeviceResponse struct {
	DeviceID string `json:"device_id"`
	IsNew    bool   `json:"is_new"`
}

type GetMyRoomsResponse struct {
	Rooms []DeviceRoomSummary `json:"rooms"`
}

// Domain types

type Room struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	ModeratorName       string     `json:"moderator_name"`
	InviteCode          string     `json:"invite_code"`
	IsActive            bool       `json:"is_active"`
	CheatName           string     `json:"-"` // moderator secret
	PollIntervalSeconds int        `json:"poll_interval_seconds"`
	AIAnalyzing         bool       `json:"ai_analyzing"`
	AIAnalysisStartedAt *time.Time `json:"ai_analysis_started_at,omitempty"`
	ScoresRevealed      bool       `json:"scores_revealed"`
	ScoresRevealedAt    *time.Time `json:"scores_revealed_at,omitempty"`
	LastRevealError     *string    `json:"last_reveal_error,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type Participant struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Photo struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	Type          string    `json:"type"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}

type Item struct {
	ID     string `json:"id"`
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// Score is a manual tally a participant reported for one item.
type Score struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	ItemID        string    `json:"item_id"`
	Value         Tier      `json:"value"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ParticipantDetails struct {
	Participant
	Photos []Photo `json:"photos"`
	Scores []Score `json:"scores"`
}

// PhotoOf returns the participant's photo of the given type, or nil.
func (p ParticipantDetails) PhotoOf(photoType string) *Photo {
	for i := range p.Photos {
		if p.Photos[i].Type == photoType {
			return &p.Photos[i]
		}
	}
	return nil
}

// ManualTiers returns the tiers of every manual score.
func (p ParticipantDetails) ManualTiers() []Tier {
	tiers := make([]Tier, 0, len(p.Scores))
	for _, s := range p.Scores {
		tiers = append(tiers, s.Value)
	}
	return tiers
}

type RoomDetails struct {
	Room         Room                 `json:"room"`
	Participants []ParticipantDetails `json:"participants"`
	Items        []Item               `json:"items"`
}

// Analysis result types

// ScoreEntry is one labelled quantity produced by the classifier.
type ScoreEntry struct {
	Name  string `json:"name"`
	Value Tier   `json:"value"`
}

// AnalysisResult holds what the classifier found for one participant.
// A nil CleanlinessScore with FinalAnalysis "failed" means no data, not zero points.
type AnalysisResult struct {
	ParticipantID    string       `json:"participant_id"`
	AutoScores       []ScoreEntry `json:"auto_scores"`
	CleanlinessScore *ScoreEntry  `json:"cleanliness_score,omitempty"`
	InitialAnalysis  string       `json:"initial_analysis"`
	FinalAnalysis    string       `json:"final_analysis"`
	CheatApplied     bool         `json:"cheat_applied,omitempty"`
	LastUpdated      time.Time    `json:"last_updated"`
}

// AIResults maps participant ID to its analysis.
type AIResults map[string]AnalysisResult

// ParticipantTotal is one line of the revealed scoreboard.
type ParticipantTotal struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Manual        int    `json:"manual"`
	Auto          int    `json:"auto"`
	Cleanliness   int    `json:"cleanliness"`
	Total         int    `json:"total"`
}

// Device types

type DeviceInfo struct {
	ID         string    `json:"id"`
	Platform   string    `json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

type DeviceRoomSummary struct {
	RoomID          string    `json:"room_id"`
	Name            string    `json:"name"`
	InviteCode      string    `json:"invite_code"`
	IsActive        bool      `json:"is_active"`
	ScoresRevealed  bool      `json:"scores_revealed"`
	Role            string    `json:"role"`
	ParticipantID   *string   `json:"participant_id,omitempty"`
	ParticipantName *string   `json:"participant_name,omitempty"`
	LinkedAt        time.Time `json:"linked_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
