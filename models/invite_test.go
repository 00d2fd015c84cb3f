package models

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"server/db"
	"server/storage"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	instance, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	db.Instance = instance
	Init()
}

func createTestCDN(t *testing.T) (*CDN, *User) {
	t.Helper()
	user, err := UserCreate("Admin", "admin@example.com", "secret123")
	require.NoError(t, err)
	bucket := storage.Bucket{
		Name:       "media",
		Region:     "us-east-1",
		S3Key:      "AKIAEXAMPLE",
		S3Secret:   "secret",
		PublicBase: "https://cdn.example.com",
	}
	require.NoError(t, db.Instance.Create(&bucket).Error)
	cdn := CDN{
		Name:        "Press CDN",
		BucketID:    bucket.ID,
		CreatedByID: user.ID,
	}
	require.NoError(t, db.Instance.Create(&cdn).Error)
	return &cdn, &user
}

func testInviteParams(cdnID string) *InviteCreateParams {
	return &InviteCreateParams{
		Label:             "press-kit",
		CDNID:             cdnID,
		AllowedMimeTypes:  []string{"image/jpeg", "image/png"},
		AllowedExtensions: []string{"jpg", "png"},
		MaxSizeBytes:      5 << 20,
		MaxUses:           aws.Int64(2),
	}
}

func TestInviteCreateAndLookup(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)

	invite, token, err := InviteCreate(testInviteParams(cdn.ID), user)
	require.NoError(t, err)
	require.NotEmpty(t, invite.ID)
	assert.Len(t, token, 43)
	assert.NotEqual(t, token, invite.TokenHash)
	assert.Equal(t, InviteStatusActive, invite.Status)
	assert.Equal(t, int64(2), invite.RemainingUses)
	// the default prefix template resolves at creation time
	assert.True(t, strings.HasPrefix(invite.UploadPrefix, "invites/press-kit/"), invite.UploadPrefix)
	assert.NotContains(t, invite.UploadPrefix, "{")

	found, err := InviteByToken(token)
	require.NoError(t, err)
	assert.Equal(t, invite.ID, found.ID)

	_, err = InviteByToken("not-a-real-token")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = InviteByID("missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInviteCreateValidation(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)

	tests := []struct {
		name   string
		mutate func(*InviteCreateParams)
		field  string
	}{
		{"empty label", func(p *InviteCreateParams) { p.Label = "" }, "label"},
		{"label too long", func(p *InviteCreateParams) { p.Label = strings.Repeat("x", 101) }, "label"},
		{"no cdn", func(p *InviteCreateParams) { p.CDNID = "" }, "cdnId"},
		{"no mime types", func(p *InviteCreateParams) { p.AllowedMimeTypes = nil }, "allowedMimeTypes"},
		{"no extensions", func(p *InviteCreateParams) { p.AllowedExtensions = nil }, "allowedExtensions"},
		{"zero size", func(p *InviteCreateParams) { p.MaxSizeBytes = 0 }, "maxSizeBytes"},
		{"zero maxUses", func(p *InviteCreateParams) { p.MaxUses = aws.Int64(0) }, "maxUses"},
		{"negative maxUses", func(p *InviteCreateParams) { p.MaxUses = aws.Int64(-1) }, "maxUses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testInviteParams(cdn.ID)
			tt.mutate(params)
			_, _, err := InviteCreate(params, user)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	params := testInviteParams("no-such-cdn")
	_, _, err := InviteCreate(params, user)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInviteIsUsable(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	tests := []struct {
		name   string
		invite Invite
		want   bool
		reason error
	}{
		{
			name:   "active unlimited",
			invite: Invite{Status: InviteStatusActive},
			want:   true,
		},
		{
			name:   "active with budget left",
			invite: Invite{Status: InviteStatusActive, MaxUses: aws.Int64(5), RemainingUses: 1},
			want:   true,
		},
		{
			name:   "active before expiry",
			invite: Invite{Status: InviteStatusActive, ExpiresAt: &future},
			want:   true,
		},
		{
			name:   "revoked",
			invite: Invite{Status: InviteStatusRevoked},
			want:   false,
			reason: ErrNotActive,
		},
		{
			name:   "expired status",
			invite: Invite{Status: InviteStatusExpired},
			want:   false,
			reason: ErrNotActive,
		},
		{
			name:   "past expiry still marked active",
			invite: Invite{Status: InviteStatusActive, ExpiresAt: &past},
			want:   false,
			reason: ErrExpired,
		},
		{
			name:   "budget exhausted",
			invite: Invite{Status: InviteStatusActive, MaxUses: aws.Int64(2), RemainingUses: 0},
			want:   false,
			reason: ErrExhausted,
		},
		{
			name:   "unlimited ignores zero remaining",
			invite: Invite{Status: InviteStatusActive, RemainingUses: 0},
			want:   true,
		},
	}
	now := time.Now()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.invite.IsUsable(now))
			err := tt.invite.CheckUsable(now)
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.reason)
			}
		})
	}
}

func TestInviteConstraintChecks(t *testing.T) {
	invite := Invite{
		AllowedMimeTypes:  StringList{"image/jpeg"},
		AllowedExtensions: StringList{"jpg", "png"},
		MaxSizeBytes:      1000,
	}

	assert.Nil(t, invite.CheckContentType("image/jpeg"))
	verr := invite.CheckContentType("application/x-sh")
	require.NotNil(t, verr)
	assert.Equal(t, "contentType", verr.Field)
	assert.Equal(t, []string{"image/jpeg"}, verr.Allowed)

	assert.Nil(t, invite.CheckExtension("png"))
	verr = invite.CheckExtension("sh")
	require.NotNil(t, verr)
	assert.Equal(t, "extension", verr.Field)
	assert.Equal(t, []string{"jpg", "png"}, verr.Allowed)

	assert.Nil(t, invite.CheckSize(1000))
	require.NotNil(t, invite.CheckSize(1001))
	require.NotNil(t, invite.CheckSize(0))
	require.NotNil(t, invite.CheckSize(-5))
}

func TestInviteCommitConsumesBudget(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)
	invite, _, err := InviteCreate(testInviteParams(cdn.ID), user)
	require.NoError(t, err)

	first := InviteUpload{Key: "invites/press-kit/a.jpg", Size: 100, ContentType: "image/jpeg", Extension: "jpg", Status: UploadStatusSuccess}
	require.NoError(t, invite.CommitUpload(&first))
	assert.Equal(t, int64(1), invite.RemainingUses)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, invite.ID, first.InviteID)

	// the counter echoed to the committer is the stored one
	midpoint, err := InviteByID(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, midpoint.RemainingUses, invite.RemainingUses)

	second := InviteUpload{Key: "invites/press-kit/b.jpg", Size: 100, ContentType: "image/jpeg", Extension: "jpg", Status: UploadStatusSuccess}
	require.NoError(t, invite.CommitUpload(&second))
	assert.Equal(t, int64(0), invite.RemainingUses)

	third := InviteUpload{Key: "invites/press-kit/c.jpg", Size: 100, ContentType: "image/jpeg", Extension: "jpg", Status: UploadStatusSuccess}
	assert.ErrorIs(t, invite.CommitUpload(&third), ErrExhausted)

	// the failed commit wrote nothing and the counter never went negative
	reloaded, err := InviteByID(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.RemainingUses)
	var count int64
	require.NoError(t, db.Instance.Model(&InviteUpload{}).Where("invite_id = ?", invite.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestInviteCommitLastUse(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)
	params := testInviteParams(cdn.ID)
	params.MaxUses = aws.Int64(1)
	invite, _, err := InviteCreate(params, user)
	require.NoError(t, err)

	upload := InviteUpload{Key: "k1.jpg", Size: 1, ContentType: "image/jpeg", Extension: "jpg", Status: UploadStatusSuccess}
	require.NoError(t, invite.CommitUpload(&upload))

	again := InviteUpload{Key: "k2.jpg", Size: 1, ContentType: "image/jpeg", Extension: "jpg", Status: UploadStatusSuccess}
	assert.ErrorIs(t, invite.CommitUpload(&again), ErrExhausted)

	reloaded, err := InviteByID(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.RemainingUses)
}

func TestInviteCommitConcurrentLastUse(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)
	params := testInviteParams(cdn.ID)
	params.MaxUses = aws.Int64(1)
	invite, _, err := InviteCreate(params, user)
	require.NoError(t, err)

	// two racing commits against the last remaining use: exactly one may
	// win, the other must see the exhausted budget
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, key := range []string{"race-a.jpg", "race-b.jpg"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			local := *invite
			upload := InviteUpload{Key: key, Size: 1, ContentType: "image/jpeg", Extension: "jpg", Status: UploadStatusSuccess}
			results <- local.CommitUpload(&upload)
		}(key)
	}
	wg.Wait()
	close(results)

	succeeded, exhausted := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected commit error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, exhausted)

	reloaded, err := InviteByID(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.RemainingUses)
	var count int64
	require.NoError(t, db.Instance.Model(&InviteUpload{}).Where("invite_id = ?", invite.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInviteCommitUnlimited(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)
	params := testInviteParams(cdn.ID)
	params.MaxUses = nil
	invite, _, err := InviteCreate(params, user)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		upload := InviteUpload{Key: "k.jpg", Size: 1, ContentType: "image/jpeg", Extension: "jpg", Status: UploadStatusSuccess}
		require.NoError(t, invite.CommitUpload(&upload))
		assert.Equal(t, int64(0), invite.RemainingUses)
	}
}

func TestInviteObserveExpiry(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)
	params := testInviteParams(cdn.ID)
	past := time.Now().Add(-time.Hour)
	params.ExpiresAt = &past
	invite, _, err := InviteCreate(params, user)
	require.NoError(t, err)
	assert.Equal(t, InviteStatusActive, invite.Status)

	assert.True(t, invite.ObserveExpiry(time.Now()))
	assert.Equal(t, InviteStatusExpired, invite.Status)

	// the transition was persisted, later reads short-circuit
	reloaded, err := InviteByID(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteStatusExpired, reloaded.Status)
	assert.False(t, reloaded.ObserveExpiry(time.Now()))
}

func TestInviteToggleRevocation(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)
	invite, _, err := InviteCreate(testInviteParams(cdn.ID), user)
	require.NoError(t, err)

	revoked, err := InviteToggleRevocation(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteStatusRevoked, revoked.Status)
	assert.ErrorIs(t, revoked.CheckUsable(time.Now()), ErrNotActive)

	restored, err := InviteToggleRevocation(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteStatusActive, restored.Status)
	assert.NoError(t, restored.CheckUsable(time.Now()))

	_, err = InviteToggleRevocation("missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInviteRegenerateToken(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)
	invite, oldToken, err := InviteCreate(testInviteParams(cdn.ID), user)
	require.NoError(t, err)

	_, newToken, err := InviteRegenerateToken(invite.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldToken, newToken)

	// the old token stops resolving immediately
	_, err = InviteByToken(oldToken)
	assert.ErrorIs(t, err, ErrNotFound)
	found, err := InviteByToken(newToken)
	require.NoError(t, err)
	assert.Equal(t, invite.ID, found.ID)
}

func TestInviteUpdate(t *testing.T) {
	setupTestDB(t)
	cdn, user := createTestCDN(t)
	invite, _, err := InviteCreate(testInviteParams(cdn.ID), user)
	require.NoError(t, err)

	upload := InviteUpload{Key: "k.jpg", Size: 1, ContentType: "image/jpeg", Extension: "jpg", Status: UploadStatusSuccess}
	require.NoError(t, invite.CommitUpload(&upload))
	require.Equal(t, int64(1), invite.RemainingUses)

	// changing the budget resets remaining uses to the new budget
	updated, err := InviteUpdate(invite.ID, &InviteUpdateParams{
		MaxUses:    aws.Int64(5),
		MaxUsesSet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated.RemainingUses)

	// switching to unlimited ignores the counter entirely
	updated, err = InviteUpdate(invite.ID, &InviteUpdateParams{MaxUsesSet: true})
	require.NoError(t, err)
	assert.Nil(t, updated.MaxUses)
	assert.Equal(t, int64(0), updated.RemainingUses)
	assert.NoError(t, updated.CheckUsable(time.Now()))

	// untouched fields survive a partial patch
	notes := "updated notes"
	updated, err = InviteUpdate(invite.ID, &InviteUpdateParams{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "updated notes", updated.Notes)
	assert.Equal(t, invite.Label, updated.Label)
	assert.Equal(t, StringList{"image/jpeg", "image/png"}, updated.AllowedMimeTypes)

	// a fresh prefix template resolves against the current label
	template := "drops/{label}/{YYYY}/"
	updated, err = InviteUpdate(invite.ID, &InviteUpdateParams{UploadPrefix: &template})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.UploadPrefix, "drops/press-kit/"), updated.UploadPrefix)
	assert.NotContains(t, updated.UploadPrefix, "{")

	empty := ""
	_, err = InviteUpdate(invite.ID, &InviteUpdateParams{Label: &empty})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
