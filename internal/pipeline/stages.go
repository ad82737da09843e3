package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"vidforge/internal/batch"
	"vidforge/internal/fileutil"
	"vidforge/internal/filtergraph"
	"vidforge/internal/job"
	"vidforge/internal/logging"
	"vidforge/internal/project"
	"vidforge/internal/services"
)

// concatFPS is the frame rate scenes are normalized to before joining.
const concatFPS = 24

func (r *run) provider(stage StageName, kind job.Kind) (job.Provider, error) {
	p, ok := r.deps.Registry.Lookup(kind)
	if !ok {
		return nil, services.Wrap(services.ErrMissingCollaborator, string(stage), "lookup",
			fmt.Sprintf("no %s provider configured", kind), nil)
	}
	return p, nil
}

func (r *run) poller(provider job.Provider, kind job.Kind, logger *slog.Logger) *job.Poller {
	return job.NewPoller(provider, r.policy(kind), job.WithClock(r.deps.Clock), job.WithLogger(logger))
}

func (r *run) generateScenes(ctx context.Context, logger *slog.Logger) (stageOutput, error) {
	provider, err := r.provider(StageGenerateScenes, job.KindVideo)
	if err != nil {
		return stageOutput{}, err
	}
	entries := make([]batch.ManifestEntry, 0, len(r.cfg.Scenes))
	for _, s := range r.cfg.Scenes {
		entries = append(entries, batch.ManifestEntry{
			Prompt:   s.Prompt,
			Duration: s.Duration,
			Output:   s.FileName(),
		})
	}
	if err := batch.SaveManifest(r.layout.BatchManifest(), entries); err != nil {
		return stageOutput{}, err
	}
	specs := batch.SpecsFromManifest(entries, job.KindVideo, map[string]string{
		"aspect_ratio": r.cfg.AspectRatio,
		"resolution":   r.cfg.Resolution,
	})
	opts := []batch.Option{batch.WithLogger(logger), batch.WithMaxConcurrency(r.deps.MaxConcurrency)}
	if r.deps.BatchReporter != nil {
		opts = append(opts, batch.WithReporter(r.deps.BatchReporter))
	}
	scheduler := batch.New(r.poller(provider, job.KindVideo, logger), r.layout.ScenesDir(), opts...)
	result := scheduler.RunBatch(ctx, specs, 0)
	if !result.Success {
		failed := result.FailedEntries()
		marker := services.ErrTerminal
		if failed[0].Status.State == job.StateTimedOut {
			marker = services.ErrTimeout
		}
		return stageOutput{files: result.Files}, services.Wrap(marker, string(StageGenerateScenes), "batch",
			fmt.Sprintf("%d of %d scenes failed; first: %s: %s",
				result.Failed, len(result.Entries), failed[0].Label, failed[0].Status.Reason), nil)
	}
	return stageOutput{
		path:  r.layout.ScenesDir(),
		files: result.Files,
		note:  fmt.Sprintf("%d scenes", result.Succeeded),
	}, nil
}

// scenePaths returns configured scene clips in declared order, failing if
// any is missing on disk.
func (r *run) scenePaths(stage StageName) ([]string, error) {
	paths := make([]string, 0, len(r.cfg.Scenes))
	for _, s := range r.cfg.Scenes {
		path := r.layout.ScenePath(s)
		if !fileExists(path) {
			return nil, services.Wrap(services.ErrNotFound, string(stage), "scenes",
				"missing scene clip "+path, nil)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *run) stripAudio(ctx context.Context) (stageOutput, error) {
	scenes, err := r.scenePaths(StageStripAudio)
	if err != nil {
		return stageOutput{}, err
	}
	silent := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		dest := r.layout.SilentPath(scene)
		if err := r.deps.Transcoder.Run(ctx, filtergraph.StripAudio(scene, dest)); err != nil {
			return stageOutput{files: silent}, fmt.Errorf("strip %s: %w", scene, err)
		}
		silent = append(silent, dest)
	}
	return stageOutput{path: r.layout.WorkDir(), files: silent, note: fmt.Sprintf("%d clips", len(silent))}, nil
}

func (r *run) generateVoiceover(ctx context.Context, logger *slog.Logger) (stageOutput, error) {
	provider, err := r.provider(StageGenerateVoiceover, job.KindVoiceover)
	if err != nil {
		return stageOutput{}, err
	}
	text := strings.TrimSpace(r.cfg.Voiceover.Text)
	if text == "" {
		return stageOutput{}, services.Wrap(services.ErrValidation, string(StageGenerateVoiceover), "spec",
			"voiceover is enabled but has no text", nil)
	}
	spec := job.Spec{
		Kind:       job.KindVoiceover,
		Prompt:     text,
		Duration:   r.cfg.TotalDuration(),
		OutputName: "voiceover.wav",
		Params: map[string]string{
			"voice": r.cfg.Voiceover.Voice,
			"style": r.cfg.Voiceover.Style,
		},
	}
	return r.generateAudio(ctx, logger, StageGenerateVoiceover, provider, spec, r.layout.Voiceover())
}

func (r *run) generateMusic(ctx context.Context, logger *slog.Logger) (stageOutput, error) {
	provider, err := r.provider(StageGenerateMusic, job.KindMusic)
	if err != nil {
		return stageOutput{}, err
	}
	prompt := strings.TrimSpace(r.cfg.Music.Prompt)
	if prompt == "" {
		return stageOutput{}, services.Wrap(services.ErrValidation, string(StageGenerateMusic), "spec",
			"music is enabled but has no prompt", nil)
	}
	duration := r.cfg.Music.Duration
	if duration <= 0 {
		duration = r.cfg.TotalDuration()
	}
	params := map[string]string{
		"brightness": strconv.FormatFloat(r.cfg.Music.Brightness, 'f', -1, 64),
	}
	if r.cfg.Music.BPM > 0 {
		params["bpm"] = strconv.Itoa(r.cfg.Music.BPM)
	}
	spec := job.Spec{
		Kind:       job.KindMusic,
		Prompt:     prompt,
		Duration:   duration,
		OutputName: "background_music.mp3",
		Params:     params,
	}
	return r.generateAudio(ctx, logger, StageGenerateMusic, provider, spec, r.layout.Music())
}

func (r *run) generateAudio(ctx context.Context, logger *slog.Logger, stage StageName, provider job.Provider, spec job.Spec, dest string) (stageOutput, error) {
	// A stale file from an earlier run must not be mixed in if this one fails.
	if err := removeIfExists(dest); err != nil {
		return stageOutput{}, err
	}
	status := r.poller(provider, spec.Kind, logger).Run(ctx, spec, dest)
	if !status.OK() {
		return stageOutput{}, statusError(stage, status)
	}
	return stageOutput{path: status.Path}, nil
}

func statusError(stage StageName, status job.Status) error {
	marker := services.ErrTerminal
	if status.State == job.StateTimedOut {
		marker = services.ErrTimeout
	}
	return services.Wrap(marker, string(stage), "generate", status.Reason, nil)
}

func (r *run) mixAudio(ctx context.Context, logger *slog.Logger) (stageOutput, error) {
	dest := r.layout.FinalMix()
	if err := removeIfExists(dest); err != nil {
		return stageOutput{}, err
	}
	voice, music := r.layout.Voiceover(), r.layout.Music()
	hasVoice, hasMusic := fileExists(voice), fileExists(music)

	switch {
	case !hasVoice && !hasMusic:
		return stageOutput{note: "no audio files generated"}, nil
	case !hasMusic:
		return r.mixSingle(ctx, voice, dest, "voiceover only")
	case !hasVoice:
		return r.mixSingle(ctx, music, dest, "music only")
	}

	asm := r.cfg.Assembly
	if r.deps.Prober == nil {
		g := filtergraph.FallbackMix(voice, music, asm.MusicVolume, dest)
		if err := r.deps.Transcoder.Run(ctx, g); err != nil {
			return stageOutput{}, err
		}
		return stageOutput{path: dest, note: "simple mix"}, nil
	}

	voiceTrack, voiceErr := r.track(ctx, voice)
	musicTrack, musicErr := r.track(ctx, music)
	if err := errors.Join(voiceErr, musicErr); err != nil {
		logging.WarnWithContext(logger, "audio probe failed; using simple mix", "mix_fallback",
			logging.Error(err),
			logging.String(logging.FieldImpact, "music is not ducked under speech"),
		)
		return r.fallbackMix(ctx, voice, music, dest)
	}
	g, err := filtergraph.Mix(voiceTrack, musicTrack, filtergraph.MixOptions{
		MusicVolume: asm.MusicVolume,
		FadeIn:      asm.FadeIn,
		FadeOut:     asm.FadeOut,
		Duck:        true,
		Normalize:   true,
	}, dest)
	if err != nil {
		return stageOutput{}, err
	}
	if g.Degraded {
		logging.WarnWithContext(logger, "channel layouts differ; mixing without ducking", "mix_fallback",
			logging.Int("voice_channels", voiceTrack.Channels),
			logging.Int("music_channels", musicTrack.Channels),
			logging.String(logging.FieldImpact, "music is not ducked under speech"),
			logging.String(logging.FieldErrorHint, "re-encode both tracks to the same channel layout"),
		)
	}
	if err := r.deps.Transcoder.Run(ctx, g); err != nil {
		logging.WarnWithContext(logger, "mix graph failed; retrying with simple mix", "mix_fallback",
			logging.Error(err),
			logging.String("graph", g.Description),
			logging.String(logging.FieldImpact, "music is not ducked under speech"),
		)
		return r.fallbackMix(ctx, voice, music, dest)
	}
	return stageOutput{path: dest, note: g.Description}, nil
}

func (r *run) mixSingle(ctx context.Context, src, dest, note string) (stageOutput, error) {
	g, err := filtergraph.MixTracks([]filtergraph.Track{{Path: src}}, false, dest)
	if err != nil {
		return stageOutput{}, err
	}
	if err := r.deps.Transcoder.Run(ctx, g); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{path: dest, note: note}, nil
}

func (r *run) fallbackMix(ctx context.Context, voice, music, dest string) (stageOutput, error) {
	g := filtergraph.FallbackMix(voice, music, r.cfg.Assembly.MusicVolume, dest)
	if err := r.deps.Transcoder.Run(ctx, g); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{path: dest, note: "fallback mix"}, nil
}

func (r *run) track(ctx context.Context, path string) (filtergraph.Track, error) {
	info, err := r.deps.Prober.Probe(ctx, path)
	if err != nil {
		return filtergraph.Track{}, err
	}
	return filtergraph.Track{Path: path, Channels: info.AudioChannels, Duration: info.Duration}, nil
}

func (r *run) concatenate(ctx context.Context, logger *slog.Logger) (stageOutput, error) {
	scenes, err := r.scenePaths(StageConcatenate)
	if err != nil {
		return stageOutput{}, err
	}
	inputs := scenes
	if r.cfg.AudioStrategy != project.StrategyVeoAudio {
		inputs = make([]string, 0, len(scenes))
		for _, s := range scenes {
			silent := r.layout.SilentPath(s)
			if !fileExists(silent) {
				return stageOutput{}, services.Wrap(services.ErrNotFound, string(StageConcatenate), "inputs",
					"missing silent clip "+silent, nil)
			}
			inputs = append(inputs, silent)
		}
	}
	dest := r.layout.FinalOutput()
	if r.cfg.AudioStrategy == project.StrategyCustom {
		dest = r.layout.Concatenated()
	}

	if r.deps.Prober != nil {
		g, err := r.concatGraph(ctx, inputs, dest)
		if err == nil {
			err = r.deps.Transcoder.Run(ctx, g)
		}
		if err == nil {
			return stageOutput{path: dest, note: g.Description}, nil
		}
		logging.WarnWithContext(logger, "concat graph failed; retrying with concat demuxer", "concat_fallback",
			logging.Error(err),
			logging.String(logging.FieldImpact, "transitions and normalization are skipped"),
		)
	}

	if err := filtergraph.WriteConcatList(r.layout.ConcatList(), inputs); err != nil {
		return stageOutput{}, err
	}
	g := filtergraph.ConcatList(r.layout.ConcatList(), dest)
	if err := r.deps.Transcoder.Run(ctx, g); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{path: dest, note: g.Description}, nil
}

func (r *run) concatGraph(ctx context.Context, inputs []string, dest string) (filtergraph.Graph, error) {
	clips := make([]filtergraph.Clip, 0, len(inputs))
	for _, path := range inputs {
		info, err := r.deps.Prober.Probe(ctx, path)
		if err != nil {
			return filtergraph.Graph{}, err
		}
		clips = append(clips, filtergraph.Clip{Path: path, Duration: info.Duration, HasAudio: info.HasAudio})
	}
	asm := r.cfg.Assembly
	return filtergraph.Concat(clips, filtergraph.ConcatOptions{
		Transition:         asm.Transition,
		TransitionDuration: asm.TransitionDuration,
		Resolution:         r.cfg.Resolution,
		AspectRatio:        r.cfg.AspectRatio,
		FPS:                concatFPS,
		IncludeAudio:       r.cfg.AudioStrategy == project.StrategyVeoAudio,
	}, dest)
}

func (r *run) merge(ctx context.Context) (stageOutput, error) {
	video := r.layout.Concatenated()
	if !fileExists(video) {
		return stageOutput{}, services.Wrap(services.ErrNotFound, string(StageMerge), "inputs",
			"missing concatenated video "+video, nil)
	}
	dest := r.layout.FinalOutput()
	audio := r.layout.FinalMix()
	if !fileExists(audio) {
		if err := fileutil.CopyFileVerified(video, dest); err != nil {
			return stageOutput{}, err
		}
		return stageOutput{path: dest, note: "no audio"}, nil
	}

	var opts filtergraph.MergeOptions
	if r.deps.Prober != nil {
		v, verr := r.deps.Prober.Probe(ctx, video)
		a, aerr := r.deps.Prober.Probe(ctx, audio)
		if verr == nil && aerr == nil && a.Duration > 0 && a.Duration < v.Duration {
			opts = filtergraph.MergeOptions{LoopAudio: true, VideoDuration: v.Duration}
		}
	}
	g, err := filtergraph.Merge(video, audio, opts, dest)
	if err != nil {
		return stageOutput{}, err
	}
	if err := r.deps.Transcoder.Run(ctx, g); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{path: dest, note: g.Description}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale %s: %w", path, err)
	}
	return nil
}
