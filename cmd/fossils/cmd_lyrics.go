package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"fossils/internal/lyrics"
	"fossils/internal/models"
)

func LyricsCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "lyrics",
		Short: "Manage the local lyrics library",
		SubCmds: []*cobra.Command{
			lyricsListCmd(),
			lyricsAddCmd(),
			lyricsEditCmd(),
			lyricsRmCmd(),
			lyricsSearchCmd(),
			lyricsAlbumsCmd(),
		},
	}.ToCobra()
}

type LyricsListParams struct {
	Album string `short:"a" optional:"true" help:"Only list entries of this album."`
}

func lyricsListCmd() *cobra.Command {
	return boa.CmdT[LyricsListParams]{
		Use:         "list",
		Short:       "List lyrics grouped by album",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *LyricsListParams, cmd *cobra.Command, args []string) {
			withEnv("lyrics list", func(e *env) error {
				return runLyricsList(e, params)
			})
		},
	}.ToCobra()
}

func runLyricsList(e *env, params *LyricsListParams) error {
	entries := e.store.GetAll()
	if params.Album != "" {
		entries = e.store.GetByAlbum(params.Album)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(e.out, "No lyrics yet.")
		return err
	}

	groups := lyrics.GroupByAlbum(entries)
	for _, album := range e.store.GetUniqueAlbums() {
		group, ok := groups[album]
		if !ok {
			continue
		}
		fmt.Fprintf(e.out, "%s (%d)\n", album, len(group))
		for _, entry := range group {
			fmt.Fprintf(e.out, "  %-32s %s\n", entry.SongName, entry.ID)
		}
	}
	return nil
}

type LyricsAddParams struct {
	Album string `short:"a" help:"Album name."`
	Song  string `short:"s" help:"Song name."`
	Body  string `short:"b" optional:"true" help:"Lyrics text."`
	File  string `short:"f" optional:"true" help:"Read the lyrics text from a file, - for stdin."`
}

func lyricsAddCmd() *cobra.Command {
	return boa.CmdT[LyricsAddParams]{
		Use:         "add",
		Short:       "Add lyrics for a song",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *LyricsAddParams, cmd *cobra.Command, args []string) {
			withEnv("lyrics add", func(e *env) error {
				return runLyricsAdd(cmd.Context(), e, params)
			})
		},
	}.ToCobra()
}

func runLyricsAdd(ctx context.Context, e *env, params *LyricsAddParams) error {
	body, err := readBody(e.in, params.Body, params.File)
	if err != nil {
		return err
	}

	c := e.coordinator()
	defer e.finish(ctx, c)

	entry, err := c.Add(params.Album, params.Song, body)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "Added %s (%s / %s)\n", entry.ID, entry.AlbumName, entry.SongName)
	return err
}

type LyricsEditParams struct {
	ID    string `pos:"true" help:"Id of the entry to edit."`
	Album string `short:"a" optional:"true" help:"New album name."`
	Song  string `short:"s" optional:"true" help:"New song name."`
	Body  string `short:"b" optional:"true" help:"New lyrics text."`
	File  string `short:"f" optional:"true" help:"Read the new lyrics text from a file, - for stdin."`
}

func lyricsEditCmd() *cobra.Command {
	return boa.CmdT[LyricsEditParams]{
		Use:         "edit",
		Short:       "Edit an existing entry; omitted fields keep their value",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *LyricsEditParams, cmd *cobra.Command, args []string) {
			withEnv("lyrics edit", func(e *env) error {
				return runLyricsEdit(cmd.Context(), e, params)
			})
		},
	}.ToCobra()
}

func runLyricsEdit(ctx context.Context, e *env, params *LyricsEditParams) error {
	current, err := e.store.Get(params.ID)
	if err != nil {
		return err
	}

	body := current.BengaliLyrics
	if params.Body != "" || params.File != "" {
		if body, err = readBody(e.in, params.Body, params.File); err != nil {
			return err
		}
	}

	c := e.coordinator()
	defer e.finish(ctx, c)

	entry, err := c.Update(params.ID,
		fallback(params.Album, current.AlbumName),
		fallback(params.Song, current.SongName),
		body)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "Updated %s (%s / %s)\n", entry.ID, entry.AlbumName, entry.SongName)
	return err
}

type LyricsRmParams struct {
	ID string `pos:"true" help:"Id of the entry to delete."`
}

func lyricsRmCmd() *cobra.Command {
	return boa.CmdT[LyricsRmParams]{
		Use:         "rm",
		Short:       "Delete an entry",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *LyricsRmParams, cmd *cobra.Command, args []string) {
			withEnv("lyrics rm", func(e *env) error {
				return runLyricsRm(cmd.Context(), e, params)
			})
		},
	}.ToCobra()
}

func runLyricsRm(ctx context.Context, e *env, params *LyricsRmParams) error {
	c := e.coordinator()
	defer e.finish(ctx, c)

	if err := c.Delete(params.ID); err != nil {
		return err
	}
	_, err := fmt.Fprintf(e.out, "Deleted %s\n", params.ID)
	return err
}

type LyricsSearchParams struct {
	Query string `pos:"true" help:"Album, song or lyrics text to look for."`
}

func lyricsSearchCmd() *cobra.Command {
	return boa.CmdT[LyricsSearchParams]{
		Use:         "search",
		Short:       "Search album names, song names and lyrics text",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *LyricsSearchParams, cmd *cobra.Command, args []string) {
			withEnv("lyrics search", func(e *env) error {
				return runLyricsSearch(e, params)
			})
		},
	}.ToCobra()
}

func runLyricsSearch(e *env, params *LyricsSearchParams) error {
	matches := e.store.Search(params.Query)
	if len(matches) == 0 {
		_, err := fmt.Fprintf(e.out, "No lyrics match %q.\n", params.Query)
		return err
	}
	for _, entry := range matches {
		fmt.Fprintf(e.out, "%s  %s / %s\n", entry.ID, entry.AlbumName, entry.SongName)
		fmt.Fprintf(e.out, "    %s\n", firstLine(entry))
	}
	return nil
}

type LyricsAlbumsParams struct {
	Filter string `pos:"true" optional:"true" help:"Only show albums containing this text."`
}

func lyricsAlbumsCmd() *cobra.Command {
	return boa.CmdT[LyricsAlbumsParams]{
		Use:         "albums",
		Short:       "List album names known to the catalog or the library",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *LyricsAlbumsParams, cmd *cobra.Command, args []string) {
			withEnv("lyrics albums", func(e *env) error {
				return runLyricsAlbums(e, params)
			})
		},
	}.ToCobra()
}

func runLyricsAlbums(e *env, params *LyricsAlbumsParams) error {
	for _, album := range lyrics.FilterAlbums(e.store.GetUniqueAlbums(), params.Filter) {
		fmt.Fprintf(e.out, "%s (%d)\n", album, len(e.store.GetByAlbum(album)))
	}
	return nil
}

// readBody picks the lyrics text from an inline value or a file
func readBody(in io.Reader, inline, file string) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", fmt.Errorf("use either --body or --file, not both")
	case file == "-":
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	default:
		return inline, nil
	}
}

func fallback(value, current string) string {
	if value == "" {
		return current
	}
	return value
}

func firstLine(entry models.LyricsEntry) string {
	line, _, _ := strings.Cut(strings.TrimSpace(entry.BengaliLyrics), "\n")
	return line
}
