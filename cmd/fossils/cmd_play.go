package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"fossils/internal/models"
	"fossils/internal/player"
	"fossils/internal/services"
)

const (
	simulatedTick      = 250 * time.Millisecond
	statusInterval     = time.Second
	simulatedFallbackS = 180
)

type PlayParams struct {
	Album    string `short:"a" optional:"true" help:"Album id to play."`
	Track    int    `short:"t" help:"Track number within the album or playlist, starting at 1." default:"1"`
	Playlist string `short:"p" optional:"true" help:"Playlist id to play."`
	Song     string `short:"s" optional:"true" help:"Song id to play, continuing through its album."`
	Resume   bool   `short:"r" help:"Resume the last session at its saved position." default:"false"`
	Volume   int    `short:"v" help:"Volume 0-100; negative keeps the saved volume." default:"-1"`
	Stop     int    `help:"Stop after this many tracks; 0 keeps playing." default:"0"`
}

func PlayCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:         "play",
		Short:       "Play an album, playlist or song",
		Long:        "Play an album, playlist or song. When the last track of an album ends, playback continues with the next album. Press Ctrl+C to stop.",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			withEnv("play", func(e *env) error {
				return runPlay(cmd.Context(), e, params, newPlayback(e))
			})
		},
	}.ToCobra()
}

// playback is the transport a play session drives. clock advances simulated
// time when there is no audio output.
type playback struct {
	transport player.Transport
	clock     func(ctx context.Context)
	interval  time.Duration
}

func newPlayback(e *env) playback {
	if player.AudioAvailable {
		t, err := player.NewBeepTransport(services.NewAudioFetcher(e.cfg.RemoteURL))
		if err == nil {
			return playback{transport: t, interval: statusInterval}
		}
		slog.Warn("Audio output unavailable", "error", err)
	}

	fmt.Fprintln(e.out, "No audio output in this build, simulating playback.")
	sim := player.NewSimulatedTransport(simulatedFallbackS)
	for _, album := range e.catalog.ListAlbums() {
		for _, song := range e.catalog.ListSongsByAlbum(album.ID) {
			if song.DurationSeconds > 0 {
				sim.SetDuration(song.AudioURL, song.DurationSeconds)
			}
		}
	}
	return playback{
		transport: sim,
		clock:     func(ctx context.Context) { sim.RunClock(ctx, simulatedTick) },
		interval:  statusInterval,
	}
}

func runPlay(ctx context.Context, e *env, params *PlayParams, pb playback) error {
	ctrl := player.NewController(pb.transport, e.catalog, e.kv)
	defer ctrl.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := ctrl.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("Player loop stopped", "error", err)
		}
	}()
	if pb.clock != nil {
		go pb.clock(runCtx)
	}

	resume := params.Resume && params.Album == "" && params.Playlist == "" && params.Song == ""

	// an explicit selection starts fresh; restoring the saved song first
	// would turn PlaySong on that same song into a toggle without its list
	restored := false
	if resume {
		restored = ctrl.Restore()
	} else {
		ctrl.RestoreVolume()
	}
	if params.Volume >= 0 {
		ctrl.SetVolume(float64(params.Volume) / 100)
	}

	if resume {
		if !restored {
			return fmt.Errorf("no saved session to resume")
		}
		ctrl.TogglePlay()
	} else {
		song, list, err := pickSongs(e, params)
		if err != nil {
			return err
		}
		ctrl.PlaySong(song, list)
	}

	return watchSession(ctx, e, ctrl, params.Stop, pb.interval)
}

// pickSongs resolves the selection flags to the first song and its context
func pickSongs(e *env, params *PlayParams) (models.Song, []models.Song, error) {
	var list []models.Song

	switch {
	case params.Song != "":
		song, ok := e.catalog.GetSong(params.Song)
		if !ok || !song.Playable() {
			return models.Song{}, nil, fmt.Errorf("song %q not found or not playable", params.Song)
		}
		list = playable(e.catalog.ListSongsByAlbum(song.AlbumID))
		if !lo.ContainsBy(list, func(s models.Song) bool { return s.ID == song.ID }) {
			list = nil
		}
		return *song, list, nil

	case params.Playlist != "":
		playlist, ok := e.catalog.GetPlaylist(params.Playlist)
		if !ok {
			return models.Song{}, nil, fmt.Errorf("playlist %q not found", params.Playlist)
		}
		list = playable(e.catalog.ListSongsByIDs(playlist.Songs))

	case params.Album != "":
		if _, ok := e.catalog.GetAlbum(params.Album); !ok {
			return models.Song{}, nil, fmt.Errorf("album %q not found", params.Album)
		}
		list = playable(e.catalog.ListSongsByAlbum(params.Album))

	default:
		return models.Song{}, nil, fmt.Errorf("choose --album, --playlist, --song or --resume")
	}

	if len(list) == 0 {
		return models.Song{}, nil, fmt.Errorf("nothing playable in the selection")
	}
	index := params.Track - 1
	if index < 0 || index >= len(list) {
		return models.Song{}, nil, fmt.Errorf("track %d out of range 1-%d", params.Track, len(list))
	}
	return list[index], list, nil
}

func playable(songs []models.Song) []models.Song {
	return lo.Filter(songs, func(s models.Song, _ int) bool {
		return s.Playable()
	})
}

// watchSession prints the current song and position until ctx is done,
// playback stops, or stop tracks have been played
func watchSession(ctx context.Context, e *env, ctrl *player.Controller, stop int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastID string
	var started int
	var sawPlaying bool

	for {
		s := ctrl.Session()

		if s.Song != nil && s.Song.ID != lastID {
			lastID = s.Song.ID
			started++
			if stop > 0 && started > stop {
				fmt.Fprintln(e.out)
				return nil
			}
			if started > 1 {
				fmt.Fprintln(e.out)
			}
			fmt.Fprintf(e.out, "Playing %s - %s\n", s.Song.Name, s.Song.AlbumName)
		}

		switch s.State {
		case player.StateError:
			fmt.Fprintln(e.out)
			return fmt.Errorf("%s: %s", lastID, s.Error)
		case player.StateLoadedPlaying:
			sawPlaying = true
		case player.StateLoadedPaused:
			if sawPlaying {
				fmt.Fprintln(e.out, "\nStopped.")
				return nil
			}
		}

		fmt.Fprintf(e.out, "\r  %s / %s  vol %d%%",
			models.FormatDuration(s.CurrentTime),
			models.FormatDuration(s.Duration),
			int(s.Volume*100+0.5))

		select {
		case <-ctx.Done():
			fmt.Fprintln(e.out)
			return nil
		case <-ticker.C:
		}
	}
}
