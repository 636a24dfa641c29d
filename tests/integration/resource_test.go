package integration

import (
	"context"
	"testing"

	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/services"
	"github.com/labmesh/labmesh-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_Integration_PositionAppend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTaskService(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	project := fixtures.CreateProject(t, owner)

	first, err := svc.Create(ctx, project.ID, "Collect samples", "", nil, owner.ID)
	require.NoError(t, err)
	second, err := svc.Create(ctx, project.ID, "Sequence samples", "", nil, owner.ID)
	require.NoError(t, err)
	third, err := svc.Create(ctx, project.ID, "Write up results", "", nil, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, 2, third.Position)

	// Positions survive a delete in the middle; no renumbering.
	require.NoError(t, svc.Delete(ctx, project.ID, second.ID))

	fourth, err := svc.Create(ctx, project.ID, "Archive data", "", nil, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, fourth.Position)

	tasks, err := svc.List(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Collect samples", tasks[0].Title)
	assert.Equal(t, "Write up results", tasks[1].Title)
	assert.Equal(t, "Archive data", tasks[2].Title)
}

func TestTaskService_Integration_ScopedToProject(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTaskService(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	projectA := fixtures.CreateProject(t, owner)
	projectB := fixtures.CreateProject(t, owner)

	task, err := svc.Create(ctx, projectA.ID, "Only in A", "", nil, owner.ID)
	require.NoError(t, err)

	// Looking a task up through the wrong project misses.
	_, err = svc.GetByID(ctx, projectB.ID, task.ID)
	assert.ErrorIs(t, err, services.ErrTaskNotFound)
}

func TestResearchItemService_Integration_PositionAppend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewResearchItemService(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	project := fixtures.CreateProject(t, owner)

	url := "https://doi.org/10.1000/xyz"
	first, err := svc.Add(ctx, project.ID, "Prior survey", &url, "", owner.ID)
	require.NoError(t, err)
	second, err := svc.Add(ctx, project.ID, "Methods paper", nil, "Detailed protocol", owner.ID)
	require.NoError(t, err)
	third, err := svc.Add(ctx, project.ID, "Review article", nil, "", owner.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, 2, third.Position)

	items, err := svc.List(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Prior survey", items[0].Title)
}

func TestMessageService_Integration_BeforeCursor(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewMessageService(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	project := fixtures.CreateProject(t, owner)

	var last *models.ProjectMessage
	for _, text := range []string{"first", "second", "third"} {
		msg, err := svc.Send(ctx, project.ID, owner.ID, text)
		require.NoError(t, err)
		last = msg
	}

	// Newest first.
	page, err := svc.List(ctx, project.ID, nil, 50)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "third", page[0].Content)

	// Paging before the newest message skips it.
	older, err := svc.List(ctx, project.ID, &last.ID, 50)
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, "second", older[0].Content)
}

func TestNotificationService_Integration_ReadFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewNotificationService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	other := fixtures.CreateUser(t)
	project := fixtures.CreateProject(t, other)

	require.NoError(t, svc.Notify(ctx, user.ID, models.NotificationInviteReceived, "invited to a project", &project.ID))
	require.NoError(t, svc.Notify(ctx, user.ID, models.NotificationRoleChanged, "your role changed", &project.ID))

	count, err := svc.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	unread, err := svc.List(ctx, user.ID, true, 50)
	require.NoError(t, err)
	require.Len(t, unread, 2)

	require.NoError(t, svc.MarkRead(ctx, user.ID, unread[0].ID))

	count, err = svc.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Users cannot mark each other's notifications.
	err = svc.MarkRead(ctx, other.ID, unread[1].ID)
	assert.ErrorIs(t, err, services.ErrNotificationNotFound)

	require.NoError(t, svc.MarkAllRead(ctx, user.ID))
	count, err = svc.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
