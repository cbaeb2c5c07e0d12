package services

import (
	"context"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textContent(s string) Content {
	return Content{Type: models.ContentText, Text: s}
}

func TestValidateCode(t *testing.T) {
	valid := []string{"abc", "promo1", "ABCdef123", strings.Repeat("x", 20)}
	for _, code := range valid {
		assert.NoError(t, ValidateCode(code), code)
	}
	invalid := []string{"", "ab", strings.Repeat("x", 21), "has space", "dash-code", "ünï", "a_b"}
	for _, code := range invalid {
		assert.ErrorIs(t, ValidateCode(code), ErrInvalidCode, code)
	}
}

func TestRandomCodeIsValid(t *testing.T) {
	for _, n := range []int{1, 3, 8, 20, 50} {
		code := randomCode(n)
		require.NoError(t, ValidateCode(code))
		assert.Equal(t, min(max(n, MinCodeLength), MaxCodeLength), len(code))
	}
}

func TestLinkCreateThenResolve(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 500, "reader")

	codes := []string{"abc", "promo1", "Z9Z9Z9Z9Z9Z9Z9Z9Z9Z9"}
	for _, code := range codes {
		content := "content for " + code
		_, err := e.links.Create(ctx, CreateLinkInput{Code: code, CreatedBy: testOwnerID, Content: textContent(content)})
		require.NoError(t, err)

		for i := 1; i <= 3; i++ {
			link, err := e.links.Resolve(ctx, code, 500)
			require.NoError(t, err)
			assert.Equal(t, content, link.ContentText)
			assert.Equal(t, models.ContentText, link.ContentType)
			assert.Equal(t, int64(i), link.Visits)

			stored, err := e.links.Get(ctx, code)
			require.NoError(t, err)
			assert.Equal(t, int64(i), stored.Visits)
		}
	}

	u, err := e.users.Get(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(3*len(codes)), u.LinkVisits)
}

func TestLinkResolveMiss(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.links.Resolve(context.Background(), "nothere", 500)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkCreateTakenCodeLeavesExisting(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.links.Create(ctx, CreateLinkInput{Code: "promo1", CreatedBy: testOwnerID, Content: textContent("Hello")})
	require.NoError(t, err)

	_, err = e.links.Create(ctx, CreateLinkInput{Code: "promo1", CreatedBy: testOwnerID, Content: textContent("Overwrite")})
	assert.ErrorIs(t, err, ErrCodeTaken)

	link, err := e.links.Get(ctx, "promo1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", link.ContentText)
	n, err := e.links.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLinkCreateGeneratesCode(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	link, err := e.links.Create(ctx, CreateLinkInput{CreatedBy: testOwnerID, Content: textContent("generated")})
	require.NoError(t, err)
	assert.Len(t, link.Code, models.DefaultSettings().LinkCodeLength)
	assert.NoError(t, ValidateCode(link.Code))
}

func TestLinkCreateValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      CreateLinkInput
		wantErr error
	}{
		{"bad code", CreateLinkInput{Code: "a!", CreatedBy: testOwnerID, Content: textContent("x")}, ErrInvalidCode},
		{"empty text", CreateLinkInput{Code: "empty1", CreatedBy: testOwnerID, Content: textContent("  ")}, ErrEmptyContent},
		{"long text", CreateLinkInput{Code: "long1", CreatedBy: testOwnerID, Content: textContent(strings.Repeat("a", 201))}, ErrTextTooLong},
		{"photo without file", CreateLinkInput{Code: "photo1", CreatedBy: testOwnerID, Content: Content{Type: models.ContentPhoto}}, ErrEmptyContent},
		{"big document", CreateLinkInput{
			Code: "doc1", CreatedBy: testOwnerID,
			Content: Content{Type: models.ContentDocument, FileID: "f", FileSize: 4096},
		}, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.links.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLinkCreateBannedUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 42, "bad")
	require.NoError(t, e.users.Ban(ctx, 42, "spam", testOwnerID))

	_, err := e.links.Create(ctx, CreateLinkInput{Code: "nope1", CreatedBy: 42, Content: textContent("x")})
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestLinkLimitSkipsDevelopers(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.settings.Set(ctx, FieldLinkLimit, "2")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := e.links.Create(ctx, CreateLinkInput{CreatedBy: 77, Content: textContent("x")})
		require.NoError(t, err)
	}
	_, err = e.links.Create(ctx, CreateLinkInput{CreatedBy: 77, Content: textContent("x")})
	assert.ErrorIs(t, err, ErrLinkLimit)

	for i := 0; i < 3; i++ {
		_, err := e.links.Create(ctx, CreateLinkInput{CreatedBy: testDevID, Content: textContent("x")})
		require.NoError(t, err)
	}

	_, err = e.settings.Set(ctx, FieldLinkLimit, "0")
	require.NoError(t, err)
	_, err = e.links.Create(ctx, CreateLinkInput{CreatedBy: 77, Content: textContent("x")})
	assert.NoError(t, err)
}

func TestLinkRename(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.links.Create(ctx, CreateLinkInput{Code: "first", CreatedBy: testOwnerID, Content: textContent("1")})
	require.NoError(t, err)
	_, err = e.links.Create(ctx, CreateLinkInput{Code: "second", CreatedBy: testOwnerID, Content: textContent("2")})
	require.NoError(t, err)

	_, err = e.links.Rename(ctx, "first", "second")
	assert.ErrorIs(t, err, ErrCodeTaken)
	_, err = e.links.Rename(ctx, "first", "x")
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = e.links.Rename(ctx, "missing", "third")
	assert.ErrorIs(t, err, ErrLinkNotFound)

	link, err := e.links.Rename(ctx, "first", "third")
	require.NoError(t, err)
	assert.Equal(t, "third", link.Code)

	_, err = e.links.Get(ctx, "first")
	assert.ErrorIs(t, err, ErrLinkNotFound)
	got, err := e.links.Get(ctx, "third")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ContentText)
}

func TestLinkUpdateDeleteList(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	for _, code := range []string{"aaa", "bbb", "ccc"} {
		_, err := e.links.Create(ctx, CreateLinkInput{Code: code, CreatedBy: testOwnerID, Content: textContent(code)})
		require.NoError(t, err)
	}

	updated, err := e.links.UpdateContent(ctx, "bbb", Content{Type: models.ContentPhoto, FileID: "photo-id", Text: "caption"})
	require.NoError(t, err)
	assert.Equal(t, models.ContentPhoto, updated.ContentType)
	assert.Equal(t, "photo-id", updated.FileID)

	require.NoError(t, e.links.Delete(ctx, "aaa"))
	assert.ErrorIs(t, e.links.Delete(ctx, "aaa"), ErrLinkNotFound)

	page, total, err := e.links.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)

	found, err := e.links.Search(ctx, "capt", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bbb", found[0].Code)
}
