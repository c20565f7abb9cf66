package tree_test

import (
	"testing"

	"github.com/ganot/quickssh/internal/domain/tree"
	"github.com/stretchr/testify/require"
)

func TestNavigation_InsertSelectsFolder(t *testing.T) {
	tr := sampleTree()
	s := tree.Start()

	prompt, err := tree.PromptFor(tr, tree.ModeInsert, s)
	require.NoError(t, err)
	require.Equal(t, "/", prompt.Location)
	require.True(t, prompt.CanHere)
	require.Len(t, prompt.Entries, 2)

	s, err = tree.Step(tr, tree.ModeInsert, s, tree.EnterFolder(0))
	require.NoError(t, err)
	require.Equal(t, tree.Path{0}, s.Path)
	require.False(t, s.Done())

	s, err = tree.Step(tr, tree.ModeInsert, s, tree.EnterFolder(1))
	require.NoError(t, err)

	prompt, err = tree.PromptFor(tr, tree.ModeInsert, s)
	require.NoError(t, err)
	require.Equal(t, "/work/staging", prompt.Location)
	require.Empty(t, prompt.Entries)

	s, err = tree.Step(tr, tree.ModeInsert, s, tree.SelectHere())
	require.NoError(t, err)
	require.Equal(t, tree.StatusSelected, s.Status)
	require.Equal(t, tree.Path{0, 1}, s.Path)
}

func TestNavigation_InsertAtRoot(t *testing.T) {
	var empty tree.Tree

	s, err := tree.Step(empty, tree.ModeInsert, tree.Start(), tree.SelectHere())
	require.NoError(t, err)
	require.Equal(t, tree.StatusSelected, s.Status)
	require.True(t, s.Path.IsRoot())
}

func TestNavigation_EnterRejectsSessions(t *testing.T) {
	tr := sampleTree()

	s := tree.Start()
	next, err := tree.Step(tr, tree.ModeInsert, s, tree.EnterFolder(1))
	require.ErrorIs(t, err, tree.ErrNotFound)
	require.Equal(t, s, next, "state is unchanged on error")

	_, err = tree.Step(tr, tree.ModeInsert, s, tree.EnterFolder(42))
	require.ErrorIs(t, err, tree.ErrNotFound)
}

func TestNavigation_Remove(t *testing.T) {
	tr := sampleTree()
	s := tree.Start()

	_, err := tree.Step(tr, tree.ModeRemove, s, tree.SelectHere())
	require.ErrorIs(t, err, tree.ErrInvalidEvent, "root cannot be removed")

	prompt, err := tree.PromptFor(tr, tree.ModeRemove, s)
	require.NoError(t, err)
	require.False(t, prompt.CanHere)
	require.Len(t, prompt.Entries, 3)

	s, err = tree.Step(tr, tree.ModeRemove, s, tree.EnterFolder(0))
	require.NoError(t, err)

	leaf, err := tree.Step(tr, tree.ModeRemove, s, tree.SelectChild(0))
	require.NoError(t, err)
	require.Equal(t, tree.Path{0, 0}, leaf.Path)
	require.True(t, leaf.Done())

	folder, err := tree.Step(tr, tree.ModeRemove, s, tree.SelectHere())
	require.NoError(t, err)
	require.Equal(t, tree.Path{0}, folder.Path)

	_, err = tree.Step(tr, tree.ModeInsert, s, tree.SelectChild(0))
	require.ErrorIs(t, err, tree.ErrInvalidEvent)
}

func TestNavigation_CancelAndDone(t *testing.T) {
	tr := sampleTree()

	s, err := tree.Step(tr, tree.ModeInsert, tree.Start(), tree.EnterFolder(0))
	require.NoError(t, err)

	s, err = tree.Step(tr, tree.ModeInsert, s, tree.Cancel())
	require.NoError(t, err)
	require.Equal(t, tree.StatusCancelled, s.Status)

	_, err = tree.Step(tr, tree.ModeInsert, s, tree.SelectHere())
	require.ErrorIs(t, err, tree.ErrNavigationDone)

	_, err = tree.Step(tr, tree.ModeInsert, tree.Start(), tree.Event{Type: "jump"})
	require.ErrorIs(t, err, tree.ErrInvalidEvent)
}

func TestNavigation_StepDoesNotMutatePath(t *testing.T) {
	tr := sampleTree()

	s, err := tree.Step(tr, tree.ModeInsert, tree.Start(), tree.EnterFolder(0))
	require.NoError(t, err)

	a, err := tree.Step(tr, tree.ModeInsert, s, tree.EnterFolder(1))
	require.NoError(t, err)
	b, err := tree.Step(tr, tree.ModeRemove, s, tree.SelectChild(0))
	require.NoError(t, err)

	require.Equal(t, tree.Path{0}, s.Path)
	require.Equal(t, tree.Path{0, 1}, a.Path)
	require.Equal(t, tree.Path{0, 0}, b.Path)
}
