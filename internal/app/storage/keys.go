package storage

import "fmt"

// Object key conventions. All pipeline data for an episode lives under
// podcasts/{podcastId}/{episodeId}/.

// ContentKey returns the canonical location of an episode's content bundle
func ContentKey(podcastID, episodeID string) string {
	return fmt.Sprintf("podcasts/%s/%s/content.json", podcastID, episodeID)
}

// LegacyContentKeys returns older bundle locations still probed for episodes
// ingested before the current layout. Order matters: first parseable wins.
func LegacyContentKeys(podcastID, episodeID string) []string {
	return []string{
		fmt.Sprintf("podcasts/%s/episodes/%s/content.json", podcastID, episodeID),
		fmt.Sprintf("content/%s/%s.json", podcastID, episodeID),
	}
}

// TranscriptPrefix returns the prefix holding an episode's transcript parts
func TranscriptPrefix(podcastID, episodeID string) string {
	return fmt.Sprintf("podcasts/%s/%s/transcripts/", podcastID, episodeID)
}

// ImageKey returns the location for a generated cover image file
func ImageKey(podcastID, episodeID, filename string) string {
	return fmt.Sprintf("podcasts/%s/%s/images/%s", podcastID, episodeID, filename)
}
