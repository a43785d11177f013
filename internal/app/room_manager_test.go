package app_test

import (
	"testing"
	"time"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomManager_GetOrCreateIsStable(t *testing.T) {
	rm := app.NewRoomManager("")
	r1 := rm.GetOrCreate("R")
	r2 := rm.GetOrCreate("R")

	assert.Same(t, r1, r2)
	assert.Equal(t, domain.DefaultDocument, r1.Document())

	_, ok := rm.Get("OTHER")
	assert.False(t, ok)
}

func TestRoomManager_CustomDocument(t *testing.T) {
	rm := app.NewRoomManager("# hi\n")
	assert.Equal(t, "# hi\n", rm.GetOrCreate("R").Document())
}

func TestRoomManager_DeleteIfEmpty(t *testing.T) {
	rm := app.NewRoomManager("")
	room := rm.GetOrCreate("R")
	room.Upsert(*domain.NewParticipant("a1", "t1", "Alice", time.Now()))

	assert.False(t, rm.DeleteIfEmpty("R"))
	room.Remove("a1")
	assert.True(t, rm.DeleteIfEmpty("R"))
	assert.False(t, rm.DeleteIfEmpty("R"), "idempotent")

	_, ok := rm.Get("R")
	assert.False(t, ok)
}

func TestRoomManager_ApplyEditExcludesEditor(t *testing.T) {
	rm := app.NewRoomManager("")
	room := rm.GetOrCreate("R")
	now := time.Now()
	room.Upsert(*domain.NewParticipant("a1", "t1", "Alice", now))
	room.Upsert(*domain.NewParticipant("b1", "t2", "Bob", now))
	gone := *domain.NewParticipant("c1", "t3", "Carol", now)
	gone.Active = false
	room.Upsert(gone)

	recipients, err := rm.ApplyEdit("R", "let x=1;", "a1")
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, domain.LogicalID("b1"), recipients[0].LogicalID)
	assert.Equal(t, "let x=1;", room.Document())

	// Still the full active list afterwards.
	assert.Len(t, room.ActiveParticipants(), 2)
}

func TestRoomManager_ApplyEditLastWriteWins(t *testing.T) {
	rm := app.NewRoomManager("")
	rm.GetOrCreate("R")

	_, _ = rm.ApplyEdit("R", "first", "a1")
	_, _ = rm.ApplyEdit("R", "second", "b1")

	room, _ := rm.Get("R")
	assert.Equal(t, "second", room.Document())
}

func TestRoomManager_UnknownRoom(t *testing.T) {
	rm := app.NewRoomManager("")

	_, err := rm.ApplyEdit("NOPE", "x", "a1")
	assert.ErrorIs(t, err, domain.ErrUnknownRoom)

	_, _, err = rm.ApplyLanguageChange("NOPE", "python")
	assert.ErrorIs(t, err, domain.ErrUnknownRoom)
}

func TestRoomManager_ApplyLanguageChange(t *testing.T) {
	rm := app.NewRoomManager("")
	room := rm.GetOrCreate("R")
	room.Upsert(*domain.NewParticipant("a1", "t1", "Alice", time.Now()))

	lang, recipients, err := rm.ApplyLanguageChange("R", "python")
	require.NoError(t, err)
	assert.Equal(t, domain.LanguagePython, lang)
	assert.Len(t, recipients, 1, "originator included")

	_, _, err = rm.ApplyLanguageChange("R", "cobol")
	assert.ErrorIs(t, err, domain.ErrInvalidLanguage)
	assert.Equal(t, domain.LanguagePython, room.Language(), "rejected change leaves state")
}

func TestRoomManager_ListSorted(t *testing.T) {
	rm := app.NewRoomManager("")
	now := time.Now()
	rm.GetOrCreate("ZED").Upsert(*domain.NewParticipant("a1", "t1", "Alice", now))
	rm.GetOrCreate("ABC").Upsert(*domain.NewParticipant("b1", "t2", "Bob", now))

	list := rm.List()
	require.Len(t, list, 2)
	assert.Equal(t, domain.RoomID("ABC"), list[0].ID)
	assert.Equal(t, domain.RoomID("ZED"), list[1].ID)
	assert.Equal(t, 1, list[0].Active)
}
