package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
	"github.com/hr-copilot-poc/server/internal/hr/store"
	"github.com/hr-copilot-poc/server/internal/retrieval"
)

// fakeStore records the identity every call was scoped to.
type fakeStore struct {
	lastUserID int64
	lastReq    store.LeaveRequest
	lastEdit   store.ProfileEdit
	raiseErr   error
	cancelErr  error
	editErr    error
}

func (f *fakeStore) LeaveBalance(_ context.Context, userID int64) (store.Balance, error) {
	f.lastUserID = userID
	return store.Balance{Remaining: 12}, nil
}

func (f *fakeStore) LeaveHistory(_ context.Context, userID int64, limit int) ([]store.Leave, error) {
	f.lastUserID = userID
	return nil, nil
}

func (f *fakeStore) PendingLeaves(_ context.Context, userID int64) ([]store.Leave, error) {
	f.lastUserID = userID
	return []store.Leave{{ID: 5, Status: store.StatusPending}}, nil
}

func (f *fakeStore) Profile(_ context.Context, userID int64) (store.Profile, error) {
	f.lastUserID = userID
	return store.Profile{ID: userID, Username: "amal"}, nil
}

func (f *fakeStore) RaiseLeave(_ context.Context, req store.LeaveRequest) (store.RaiseResult, error) {
	f.lastUserID = req.UserID
	f.lastReq = req
	if f.raiseErr != nil {
		return store.RaiseResult{}, f.raiseErr
	}
	return store.RaiseResult{OK: true, Days: req.Days()}, nil
}

func (f *fakeStore) CancelLeave(_ context.Context, userID, leaveID int64) error {
	f.lastUserID = userID
	return f.cancelErr
}

func (f *fakeStore) EditProfile(_ context.Context, edit store.ProfileEdit) (store.Profile, error) {
	f.lastUserID = edit.UserID
	f.lastEdit = edit
	if f.editErr != nil {
		return store.Profile{}, f.editErr
	}
	return store.Profile{ID: edit.UserID, Email: edit.Value}, nil
}

type fakeIndex struct {
	lastQuery string
	lastK     int
	docs      []retrieval.Document
}

func (f *fakeIndex) Search(_ context.Context, query string, k int) ([]retrieval.Document, error) {
	f.lastQuery = query
	f.lastK = k
	return f.docs, nil
}

func invoke(t *testing.T, ts []tool.BaseTool, name, args string) (string, error) {
	t.Helper()
	ctx := context.Background()
	for _, bt := range ts {
		info, err := bt.Info(ctx)
		require.NoError(t, err)
		if info.Name != name {
			continue
		}
		inv, ok := bt.(tool.InvokableTool)
		require.True(t, ok, "tool %s is not invokable", name)
		return inv.InvokableRun(ctx, args)
	}
	t.Fatalf("tool %s not found", name)
	return "", nil
}

func TestSchemasNeverExposeIdentity(t *testing.T) {
	ts := BuildForUser(1, Deps{Store: &fakeStore{}, Index: &fakeIndex{}})
	infos, err := GetToolInfos(context.Background(), ts)
	require.NoError(t, err)
	require.Len(t, infos, 8)

	for _, info := range infos {
		params, err := info.ParamsOneOf.ToOpenAPIV3()
		require.NoError(t, err, info.Name)
		if params == nil {
			continue
		}
		for name := range params.Properties {
			lower := strings.ToLower(name)
			assert.NotContains(t, lower, "user", "tool %s exposes identity parameter %s", info.Name, name)
			assert.NotContains(t, lower, "identity", "tool %s exposes identity parameter %s", info.Name, name)
		}
	}
}

func TestReadToolsUseBoundIdentity(t *testing.T) {
	fs := &fakeStore{}
	ts := BuildForUser(42, Deps{Store: fs, Index: &fakeIndex{}})

	out, err := invoke(t, ts, ToolGetLeaveBalance, `{}`)
	require.NoError(t, err)
	assert.Equal(t, int64(42), fs.lastUserID)
	assert.JSONEq(t, `{"remaining":12}`, out)

	// identity-looking arguments are simply not part of the schema and
	// cannot redirect the call
	_, err = invoke(t, ts, ToolGetPendingLeaves, `{"user_id": 7}`)
	require.NoError(t, err)
	assert.Equal(t, int64(42), fs.lastUserID)
}

func TestRaiseLeaveComputesEndDateFromDays(t *testing.T) {
	fs := &fakeStore{}
	ts := BuildForUser(1, Deps{Store: fs, Index: &fakeIndex{}})

	out, err := invoke(t, ts, ToolRaiseLeave, `{"start_date":"2031-03-02","days":3}`)
	require.NoError(t, err)

	assert.Equal(t, "2031-03-02", fs.lastReq.StartDate.Format(store.DateFormat))
	assert.Equal(t, "2031-03-04", fs.lastReq.EndDate.Format(store.DateFormat))

	var res RaiseLeaveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OK)
	assert.Equal(t, 3, res.Days)
}

func TestRaiseLeaveMissingEndAndDays(t *testing.T) {
	fs := &fakeStore{}
	ts := BuildForUser(1, Deps{Store: fs, Index: &fakeIndex{}})

	out, err := invoke(t, ts, ToolRaiseLeave, `{"start_date":"2031-03-02"}`)
	require.NoError(t, err)

	var res RaiseLeaveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.OK)
	assert.Equal(t, string(errx.KindArgument), res.Kind)
	assert.Contains(t, res.Error, "end_date")
	assert.Zero(t, fs.lastUserID, "store must not be touched on argument errors")
}

func TestRaiseLeaveBadDate(t *testing.T) {
	ts := BuildForUser(1, Deps{Store: &fakeStore{}, Index: &fakeIndex{}})

	out, err := invoke(t, ts, ToolRaiseLeave, `{"start_date":"02/03/2031","days":1}`)
	require.NoError(t, err)

	var res RaiseLeaveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, string(errx.KindArgument), res.Kind)
}

func TestRaiseLeaveBusinessRuleBecomesPayload(t *testing.T) {
	fs := &fakeStore{raiseErr: errx.BusinessRule("not enough leave balance")}
	ts := BuildForUser(1, Deps{Store: fs, Index: &fakeIndex{}})

	out, err := invoke(t, ts, ToolRaiseLeave, `{"start_date":"2031-03-02","days":3}`)
	require.NoError(t, err, "business-rule failures must not abort the loop")

	var res RaiseLeaveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.OK)
	assert.Equal(t, string(errx.KindBusinessRule), res.Kind)
	assert.Equal(t, "not enough leave balance", res.Error)
}

func TestRaiseLeaveUpstreamFailureAborts(t *testing.T) {
	fs := &fakeStore{raiseErr: errx.Upstream(errors.New("db gone"), errx.StoreErrorMessage)}
	ts := BuildForUser(1, Deps{Store: fs, Index: &fakeIndex{}})

	_, err := invoke(t, ts, ToolRaiseLeave, `{"start_date":"2031-03-02","days":3}`)
	require.Error(t, err)
	assert.Equal(t, errx.KindUpstream, errx.KindOf(err))
}

func TestCancelLeave(t *testing.T) {
	fs := &fakeStore{}
	ts := BuildForUser(9, Deps{Store: fs, Index: &fakeIndex{}})

	out, err := invoke(t, ts, ToolCancelLeave, `{"leave_id":5}`)
	require.NoError(t, err)
	assert.Equal(t, int64(9), fs.lastUserID)

	var res CancelLeaveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OK)

	out, err = invoke(t, ts, ToolCancelLeave, `{}`)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, string(errx.KindArgument), res.Kind)
}

func TestEditProfileNormalizesField(t *testing.T) {
	fs := &fakeStore{}
	ts := BuildForUser(3, Deps{Store: fs, Index: &fakeIndex{}})

	out, err := invoke(t, ts, ToolEditProfile, `{"field":" Email ","value":"new@example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, "email", fs.lastEdit.Field)

	var res EditProfileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OK)
	require.NotNil(t, res.Profile)
	assert.Equal(t, "new@example.com", res.Profile.Email)
}

func TestEditProfileDisallowedFieldBecomesPayload(t *testing.T) {
	fs := &fakeStore{editErr: errx.BusinessRule("field 'ssn' is not editable")}
	ts := BuildForUser(3, Deps{Store: fs, Index: &fakeIndex{}})

	out, err := invoke(t, ts, ToolEditProfile, `{"field":"ssn","value":"x"}`)
	require.NoError(t, err)

	var res EditProfileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.OK)
	assert.Equal(t, string(errx.KindBusinessRule), res.Kind)
}

func TestSearchLaborLaw(t *testing.T) {
	fi := &fakeIndex{docs: []retrieval.Document{{Text: "Article 109"}}}
	ts := BuildForUser(1, Deps{Store: &fakeStore{}, Index: fi, TopK: 4})

	out, err := invoke(t, ts, ToolSearchLaborLaw, `{"query":"annual leave"}`)
	require.NoError(t, err)
	assert.Equal(t, "annual leave", fi.lastQuery)
	assert.Equal(t, 4, fi.lastK)

	var res SearchLaborLawOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "Article 109", res.Documents[0].Text)

	// empty query is an argument failure, not an index call
	out, err = invoke(t, ts, ToolSearchLaborLaw, `{"query":"  "}`)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, string(errx.KindArgument), res.Kind)
}
