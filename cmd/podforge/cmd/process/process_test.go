package process

import (
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podforge/pkg/tasks"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func TestEnqueueTask(t *testing.T) {
	podcastID = "pod-1"
	episodeID = "ep-1"
	skipTitle = false
	skipSummary = false
	skipImage = true

	client := &fakeEnqueuer{}
	require.NoError(t, enqueueTask(client))
	require.Len(t, client.tasks, 1)

	task := client.tasks[0]
	assert.Equal(t, tasks.TypeEpisodePostProcess, task.Type())

	var payload tasks.EpisodePostProcessPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "pod-1", payload.PodcastID)
	assert.Equal(t, "ep-1", payload.EpisodeID)
	assert.True(t, payload.SkipImage)
	assert.False(t, payload.SkipTitle)
}
