package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageWithButtons(titles ...string) *LinkPage {
	p := &LinkPage{UUID: uuid.New(), State: LifecycleStateDraft, Buttons: ButtonList{}}
	for _, title := range titles {
		id := p.AddButton(DefaultButtonPresets[SocialTypeCustom])
		p.UpdateButton(id, ButtonPatch{Title: &title})
	}
	return p
}

func titles(p *LinkPage) []string {
	out := make([]string, len(p.Buttons))
	for i, b := range p.Buttons {
		out[i] = b.Title
	}
	return out
}

func TestAddButton(t *testing.T) {
	p := &LinkPage{}

	id := p.AddButton(DefaultButtonPresets[SocialTypeMessenger])
	require.Len(t, p.Buttons, 1)
	assert.Equal(t, id, p.Buttons[0].ID)
	assert.Equal(t, SocialTypeMessenger, p.Buttons[0].SocialType)
	assert.Equal(t, "Message me", p.Buttons[0].Title)
	assert.Equal(t, 100, p.Buttons[0].Opacity)
	assert.True(t, p.Buttons[0].IsActive)
	assert.False(t, p.Buttons[0].Rotator.Enabled)
}

func TestUpdateButton(t *testing.T) {
	t.Run("MergesPartialPatch", func(t *testing.T) {
		p := pageWithButtons("A")
		id := p.Buttons[0].ID

		newTitle := "Updated"
		radius := 12
		touched := p.UpdateButton(id, ButtonPatch{Title: &newTitle, CornerRadius: &radius})
		assert.True(t, touched)
		assert.Equal(t, "Updated", p.Buttons[0].Title)
		assert.Equal(t, 12, p.Buttons[0].CornerRadius)
		// untouched fields keep their values
		assert.Equal(t, "#000000", p.Buttons[0].FillColor)
	})

	t.Run("UnknownIDIsNoOp", func(t *testing.T) {
		p := pageWithButtons("A")
		before := p.Buttons[0]

		newTitle := "Updated"
		touched := p.UpdateButton(uuid.New(), ButtonPatch{Title: &newTitle})
		assert.False(t, touched)
		assert.Equal(t, before, p.Buttons[0])
	})
}

func TestDeleteButton(t *testing.T) {
	p := pageWithButtons("A", "B", "C")
	id := p.Buttons[1].ID

	assert.True(t, p.DeleteButton(id))
	assert.Equal(t, []string{"A", "C"}, titles(p))

	// unknown id no-ops
	assert.False(t, p.DeleteButton(uuid.New()))
	assert.Equal(t, []string{"A", "C"}, titles(p))
}

func TestReorder(t *testing.T) {
	t.Run("ExtractThenReinsertNotSwap", func(t *testing.T) {
		p := pageWithButtons("A", "B", "C", "D")
		require.NoError(t, p.Reorder(0, 2))
		assert.Equal(t, []string{"B", "C", "A", "D"}, titles(p))
	})

	t.Run("MoveBackward", func(t *testing.T) {
		p := pageWithButtons("A", "B", "C", "D")
		require.NoError(t, p.Reorder(3, 0))
		assert.Equal(t, []string{"D", "A", "B", "C"}, titles(p))
	})

	t.Run("AdjacentMove", func(t *testing.T) {
		p := pageWithButtons("A", "B", "C")
		require.NoError(t, p.Reorder(1, 2))
		assert.Equal(t, []string{"A", "C", "B"}, titles(p))
	})

	t.Run("SamePositionNoOp", func(t *testing.T) {
		p := pageWithButtons("A", "B")
		require.NoError(t, p.Reorder(1, 1))
		assert.Equal(t, []string{"A", "B"}, titles(p))
	})

	t.Run("OutOfRangeFailsLoudly", func(t *testing.T) {
		p := pageWithButtons("A", "B")
		err := p.Reorder(0, 2)
		require.ErrorIs(t, err, ErrReorderIndexOutOfRange)
		assert.Equal(t, []string{"A", "B"}, titles(p))

		err = p.Reorder(-1, 0)
		require.ErrorIs(t, err, ErrReorderIndexOutOfRange)
	})
}

func TestSetRotatorSlot(t *testing.T) {
	t.Run("WritesSlotInPlace", func(t *testing.T) {
		p := &LinkPage{}
		id := p.AddButton(DefaultButtonPresets[SocialTypeMessenger])

		require.NoError(t, p.SetRotatorSlot(id, 0, "https://wa.me/1"))
		require.NoError(t, p.SetRotatorSlot(id, 4, "https://wa.me/5"))
		assert.Equal(t, "https://wa.me/1", p.Buttons[0].Rotator.AlternateURLs[0])
		assert.Equal(t, "https://wa.me/5", p.Buttons[0].Rotator.AlternateURLs[4])
	})

	t.Run("AlwaysFiveSlots", func(t *testing.T) {
		p := &LinkPage{}
		id := p.AddButton(DefaultButtonPresets[SocialTypeMessenger])
		assert.Len(t, p.Buttons[0].Rotator.AlternateURLs, RotatorSlots)

		on := true
		p.UpdateButton(id, ButtonPatch{RotatorOn: &on})
		assert.Len(t, p.Buttons[0].Rotator.AlternateURLs, RotatorSlots)

		off := false
		p.UpdateButton(id, ButtonPatch{RotatorOn: &off})
		assert.Len(t, p.Buttons[0].Rotator.AlternateURLs, RotatorSlots)
	})

	t.Run("SlotOutOfRange", func(t *testing.T) {
		p := &LinkPage{}
		id := p.AddButton(DefaultButtonPresets[SocialTypeMessenger])
		require.ErrorIs(t, p.SetRotatorSlot(id, 5, "x"), ErrRotatorSlotOutOfRange)
		require.ErrorIs(t, p.SetRotatorSlot(id, -1, "x"), ErrRotatorSlotOutOfRange)
	})

	t.Run("NonMessengerRejected", func(t *testing.T) {
		p := &LinkPage{}
		id := p.AddButton(DefaultButtonPresets[SocialTypeCustom])
		require.ErrorIs(t, p.SetRotatorSlot(id, 0, "x"), ErrRotatorNotApplicable)
	})

	t.Run("UnknownButtonIsNoOp", func(t *testing.T) {
		p := &LinkPage{}
		require.NoError(t, p.SetRotatorSlot(uuid.New(), 0, "x"))
	})
}

func TestHasEnabledRotator(t *testing.T) {
	p := &LinkPage{}
	p.AddButton(DefaultButtonPresets[SocialTypeCustom])
	id := p.AddButton(DefaultButtonPresets[SocialTypeMessenger])
	assert.False(t, p.HasEnabledRotator())

	on := true
	p.UpdateButton(id, ButtonPatch{RotatorOn: &on})
	assert.True(t, p.HasEnabledRotator())
}

func TestPartitionByLifecycle(t *testing.T) {
	draft1 := &LinkPage{UUID: uuid.New(), State: LifecycleStateDraft}
	active := &LinkPage{UUID: uuid.New(), State: LifecycleStateActive}
	draft2 := &LinkPage{UUID: uuid.New(), State: LifecycleStateDraft}

	drafts, actives := PartitionByLifecycle([]*LinkPage{draft1, active, draft2})
	require.Len(t, drafts, 2)
	require.Len(t, actives, 1)
	assert.Equal(t, draft1.UUID, drafts[0].UUID)
	assert.Equal(t, draft2.UUID, drafts[1].UUID)
	assert.Equal(t, active.UUID, actives[0].UUID)
}

func TestLifecycleTransitions(t *testing.T) {
	draft := &LinkPage{State: LifecycleStateDraft}
	assert.True(t, draft.CanTransitionTo(LifecycleStateActive))

	active := &LinkPage{State: LifecycleStateActive}
	assert.False(t, active.CanTransitionTo(LifecycleStateDraft))
}

func TestPageThemeScanDefaultsBackgroundType(t *testing.T) {
	// Records written before gradients existed have no background_type.
	var theme PageTheme
	require.NoError(t, theme.Scan([]byte(`{"border_color":"#333333","overlay_opacity":40,"background_from":"#FFFFFF"}`)))
	assert.Equal(t, BackgroundTypeSolid, theme.BackgroundType)
	assert.Equal(t, 40, theme.OverlayOpacity)
}
