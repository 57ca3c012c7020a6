package tools

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
	"github.com/hr-copilot-poc/server/internal/hr/store"
)

// ===================================
// Action tools: raise leave, cancel leave, edit profile.
// Argument and business-rule failures become structured payloads so the
// planner can recover; everything else aborts the turn.
// ===================================

type RaiseLeaveInput struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
	Days      int    `json:"days,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type RaiseLeaveOutput struct {
	OK   bool `json:"ok"`
	Days int  `json:"days,omitempty"`
	Failure
}

func newRaiseLeaveTool(userID int64, st HRStore) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolRaiseLeave,
			Desc: "Create a leave request for the current user. Provide EITHER end_date (yyyy-mm-dd) OR days (a positive integer). When days is given without end_date, the end date is start_date + (days - 1), inclusive.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"start_date": {
					Type:     "string",
					Desc:     "First day of leave, yyyy-mm-dd.",
					Required: true,
				},
				"end_date": {
					Type: "string",
					Desc: "Last day of leave, yyyy-mm-dd, inclusive. Omit when days is given.",
				},
				"days": {
					Type: "number",
					Desc: "Number of leave days, counted inclusively. Omit when end_date is given.",
				},
				"reason": {
					Type: "string",
					Desc: "Optional reason for the leave.",
				},
			}),
		},
		func(ctx context.Context, in *RaiseLeaveInput) (*RaiseLeaveOutput, error) {
			req, err := leaveRequestFrom(userID, in)
			if err == nil {
				var res store.RaiseResult
				res, err = st.RaiseLeave(ctx, req)
				if err == nil {
					return &RaiseLeaveOutput{OK: res.OK, Days: res.Days}, nil
				}
			}
			if errx.Recoverable(err) {
				return &RaiseLeaveOutput{Failure: failureOf(err)}, nil
			}
			return nil, err
		},
	)
}

// leaveRequestFrom resolves the end_date-or-days argument rule.
func leaveRequestFrom(userID int64, in *RaiseLeaveInput) (store.LeaveRequest, error) {
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return store.LeaveRequest{}, err
	}

	var end time.Time
	switch {
	case strings.TrimSpace(in.EndDate) != "":
		end, err = parseDate("end_date", in.EndDate)
		if err != nil {
			return store.LeaveRequest{}, err
		}
	case in.Days > 0:
		end = start.AddDate(0, 0, in.Days-1) // inclusive range
	default:
		return store.LeaveRequest{}, errx.Argument("provide either 'end_date' or a positive 'days' value")
	}

	return store.LeaveRequest{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Reason:    strings.TrimSpace(in.Reason),
	}, nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(store.DateFormat, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errx.Argument("invalid %s %q; expected yyyy-mm-dd", field, value)
	}
	return d, nil
}

type CancelLeaveInput struct {
	LeaveID int64 `json:"leave_id"`
}

type CancelLeaveOutput struct {
	OK bool `json:"ok"`
	Failure
}

func newCancelLeaveTool(userID int64, st HRStore) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCancelLeave,
			Desc: "Cancel one of the current user's pending or approved leaves.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"leave_id": {
					Type:     "number",
					Desc:     "Leave id from GetLeaveHistory or GetPendingLeaves.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *CancelLeaveInput) (*CancelLeaveOutput, error) {
			if in.LeaveID <= 0 {
				return &CancelLeaveOutput{Failure: failureOf(errx.Argument("leave_id is required"))}, nil
			}
			err := st.CancelLeave(ctx, userID, in.LeaveID)
			if err == nil {
				return &CancelLeaveOutput{OK: true}, nil
			}
			if errx.Recoverable(err) {
				return &CancelLeaveOutput{Failure: failureOf(err)}, nil
			}
			return nil, err
		},
	)
}

type EditProfileInput struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type EditProfileOutput struct {
	OK      bool           `json:"ok"`
	Profile *store.Profile `json:"profile,omitempty"`
	Failure
}

func newEditProfileTool(userID int64, st HRStore) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolEditProfile,
			Desc: "Edit one of the current user's profile fields. Editable fields: address, contact_phone, email, employment_title, org_unit.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"field": {
					Type:     "string",
					Desc:     "Field to change: address, contact_phone, email, employment_title or org_unit.",
					Required: true,
				},
				"value": {
					Type:     "string",
					Desc:     "New value for the field.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *EditProfileInput) (*EditProfileOutput, error) {
			field := strings.TrimSpace(strings.ToLower(in.Field))
			if field == "" {
				return &EditProfileOutput{Failure: failureOf(errx.Argument("field is required"))}, nil
			}
			p, err := st.EditProfile(ctx, store.ProfileEdit{UserID: userID, Field: field, Value: in.Value})
			if err == nil {
				return &EditProfileOutput{OK: true, Profile: &p}, nil
			}
			if errx.Recoverable(err) {
				return &EditProfileOutput{Failure: failureOf(err)}, nil
			}
			return nil, err
		},
	)
}
