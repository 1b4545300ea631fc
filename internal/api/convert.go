package api

import (
	"sort"
	"time"

	"class360/internal/language"
	"class360/internal/mediastore"
	"class360/internal/queue"
)

// FromJob converts a queue job into its wire representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	created := ""
	if !job.CreatedAt.IsZero() {
		created = job.CreatedAt.UTC().Format(time.RFC3339)
	}
	return Job{
		ID:           job.ID,
		Type:         string(job.Type),
		Priority:     string(job.Priority),
		EntityID:     job.EntityID,
		InputPath:    job.InputPath,
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    created,
		Params:       job.Params,
	}
}

// FromJobs converts a job slice, preserving order.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromEntity converts a stored video entity into its wire representation.
func FromEntity(entity *mediastore.Entity) Video {
	if entity == nil {
		return Video{}
	}
	return Video{
		ID:           entity.ID,
		Title:        entity.Title,
		Subject:      entity.Subject,
		TeacherID:    entity.TeacherID,
		ClassroomID:  entity.ClassroomID,
		Date:         entity.Date,
		Period:       entity.Period,
		DurationSec:  entity.DurationSec,
		Status:       entity.Status,
		TrimmedURL:   entity.TrimmedURL,
		Subtitles:    SubtitleTracks(entity.SubtitleURLs),
		DubURL:       entity.DubURL,
		NotesURL:     entity.NotesURL,
		NotesPDFURL:  entity.NotesPDFURL,
		QuestionsURL: entity.QuestionsURL,
		ManifestURL:  entity.ManifestURL,
	}
}

// FromEntities converts an entity slice, preserving order.
func FromEntities(entities []*mediastore.Entity) []Video {
	out := make([]Video, 0, len(entities))
	for _, entity := range entities {
		out = append(out, FromEntity(entity))
	}
	return out
}

// SubtitleTracks flattens the per-language subtitle map into a stable,
// code-sorted track list with display names.
func SubtitleTracks(urls map[string]string) []SubtitleTrack {
	if len(urls) == 0 {
		return nil
	}
	codes := make([]string, 0, len(urls))
	for code := range urls {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]SubtitleTrack, 0, len(codes))
	for _, code := range codes {
		out = append(out, SubtitleTrack{
			Language:    code,
			DisplayName: language.DisplayName(code),
			URL:         urls[code],
		})
	}
	return out
}
