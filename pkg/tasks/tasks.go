package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeEpisodePostProcess = "episode:postprocess"
)

type EpisodePostProcessPayload struct {
	PodcastID   string
	EpisodeID   string
	SkipTitle   bool
	SkipSummary bool
	SkipImage   bool
}

func NewEpisodePostProcessTask(podcastID, episodeID string, skipTitle, skipSummary, skipImage bool) (*asynq.Task, error) {
	payload, err := json.Marshal(EpisodePostProcessPayload{
		PodcastID:   podcastID,
		EpisodeID:   episodeID,
		SkipTitle:   skipTitle,
		SkipSummary: skipSummary,
		SkipImage:   skipImage,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEpisodePostProcess, payload), nil
}
