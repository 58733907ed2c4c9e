package whatsapp

import (
	"context"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types"
)

// EnhancedGroupParticipant carries both identifier conventions for one
// member. WhatsApp may return a LID (Linked ID) instead of the phone JID for
// users with privacy features enabled, so the phone number is kept separately
// in the "+digits" convention the CRM consumes.
type EnhancedGroupParticipant struct {
	JID          string `json:"JID"`
	PhoneNumber  string `json:"PhoneNumber"`
	LID          string `json:"LID,omitempty"`
	IsAdmin      bool   `json:"IsAdmin"`
	IsSuperAdmin bool   `json:"IsSuperAdmin"`
	DisplayName  string `json:"DisplayName,omitempty"`
}

// EnhancedGroupInfo flattens types.GroupInfo into a JSON shape with string
// JIDs and CRM-ready participant phone numbers.
type EnhancedGroupInfo struct {
	JID                    string                     `json:"JID"`
	OwnerJID               string                     `json:"OwnerJID,omitempty"`
	Name                   string                     `json:"Name"`
	NameSetAt              time.Time                  `json:"NameSetAt,omitempty"`
	NameSetBy              string                     `json:"NameSetBy,omitempty"`
	Topic                  string                     `json:"Topic,omitempty"`
	TopicID                string                     `json:"TopicID,omitempty"`
	TopicSetAt             time.Time                  `json:"TopicSetAt,omitempty"`
	TopicSetBy             string                     `json:"TopicSetBy,omitempty"`
	TopicDeleted           bool                       `json:"TopicDeleted,omitempty"`
	Locked                 bool                       `json:"IsLocked"`
	Announce               bool                       `json:"IsAnnounce"`
	Ephemeral              uint32                     `json:"Ephemeral,omitempty"`
	IsParent               bool                       `json:"IsParent,omitempty"`
	IsDefaultSubGroup      bool                       `json:"IsDefaultSubGroup,omitempty"`
	LinkedParentJID        string                     `json:"LinkedParentJID,omitempty"`
	IsIncognito            bool                       `json:"IsIncognito,omitempty"`
	MemberAddMode          string                     `json:"MemberAddMode,omitempty"`
	GroupCreated           time.Time                  `json:"GroupCreated,omitempty"`
	ParticipantVersionID   string                     `json:"ParticipantVersionID,omitempty"`
	Participants           []EnhancedGroupParticipant `json:"Participants"`
	IsJoinApprovalRequired bool                       `json:"IsJoinApprovalRequired,omitempty"`
	GroupType              string                     `json:"GroupType,omitempty"`
}

// ConvertToEnhancedGroupInfo converts types.GroupInfo to EnhancedGroupInfo.
// Participant phone numbers come from the PhoneNumber field when whatsmeow
// resolved one, falling back to the participant JID.
func ConvertToEnhancedGroupInfo(group types.GroupInfo) EnhancedGroupInfo {
	enhanced := EnhancedGroupInfo{
		JID:                    group.JID.String(),
		Name:                   group.Name,
		NameSetAt:              group.NameSetAt,
		Topic:                  group.Topic,
		TopicID:                group.TopicID,
		TopicSetAt:             group.TopicSetAt,
		TopicDeleted:           group.TopicDeleted,
		Locked:                 group.IsLocked,
		Announce:               group.IsAnnounce,
		Ephemeral:              group.DisappearingTimer,
		IsParent:               group.IsParent,
		IsDefaultSubGroup:      group.IsDefaultSubGroup,
		IsIncognito:            group.IsIncognito,
		IsJoinApprovalRequired: group.IsJoinApprovalRequired,
		GroupCreated:           group.GroupCreated,
		ParticipantVersionID:   group.ParticipantVersionID,
		Participants:           make([]EnhancedGroupParticipant, 0, len(group.Participants)),
	}

	if group.OwnerJID.User != "" {
		enhanced.OwnerJID = group.OwnerJID.String()
	}
	if group.NameSetBy.User != "" {
		enhanced.NameSetBy = group.NameSetBy.String()
	}
	if group.TopicSetBy.User != "" {
		enhanced.TopicSetBy = group.TopicSetBy.String()
	}
	if group.LinkedParentJID.User != "" {
		enhanced.LinkedParentJID = group.LinkedParentJID.String()
	}
	if group.MemberAddMode != "" {
		enhanced.MemberAddMode = string(group.MemberAddMode)
	}

	switch {
	case group.IsParent:
		enhanced.GroupType = "community"
	case group.LinkedParentJID.User != "":
		enhanced.GroupType = "subgroup"
	default:
		enhanced.GroupType = "group"
	}

	for _, p := range group.Participants {
		ep := EnhancedGroupParticipant{
			JID:          p.JID.String(),
			IsAdmin:      p.IsAdmin,
			IsSuperAdmin: p.IsSuperAdmin,
			DisplayName:  p.DisplayName,
		}

		if p.LID.User != "" {
			ep.LID = p.LID.String()
		}

		// For LID-only participants with no resolved phone number this
		// yields the LID string rather than a fake "+number"
		if p.PhoneNumber.User != "" {
			ep.PhoneNumber = FormatJIDForCRM(p.PhoneNumber)
		} else {
			ep.PhoneNumber = FormatJIDForCRM(p.JID)
		}

		enhanced.Participants = append(enhanced.Participants, ep)
	}

	return enhanced
}

// ConvertGroupsToEnhanced converts multiple groups in parallel. Accounts can
// be in hundreds of groups, so conversion is fanned out over a bounded
// worker pool and stops early when the context is cancelled.
func ConvertGroupsToEnhanced(ctx context.Context, groups []*types.GroupInfo, maxWorkers int) ([]EnhancedGroupInfo, error) {
	if len(groups) == 0 {
		return []EnhancedGroupInfo{}, nil
	}

	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if maxWorkers > len(groups) {
		maxWorkers = len(groups)
	}

	result := make([]EnhancedGroupInfo, len(groups))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxWorkers)

	for i, group := range groups {
		if group == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		wg.Add(1)
		go func(idx int, g types.GroupInfo) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			}

			result[idx] = ConvertToEnhancedGroupInfo(g)
		}(i, *group)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	}

	filtered := make([]EnhancedGroupInfo, 0, len(result))
	for _, r := range result {
		if r.JID != "" {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}
