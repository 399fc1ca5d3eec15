package main

import (
	"fmt"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
)

func CatalogCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "catalog",
		Short: "Browse albums and songs",
		SubCmds: []*cobra.Command{
			catalogAlbumsCmd(),
			catalogSongsCmd(),
			catalogSearchCmd(),
		},
	}.ToCobra()
}

func catalogAlbumsCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "albums",
		Short: "List albums in catalog order",
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			withEnv("catalog albums", runCatalogAlbums)
		},
	}.ToCobra()
}

func runCatalogAlbums(e *env) error {
	albums := e.catalog.ListAlbums()
	if len(albums) == 0 {
		_, err := fmt.Fprintf(e.out, "Catalog is empty (CATALOG_FILE=%s).\n", e.cfg.CatalogFile)
		return err
	}
	for _, album := range albums {
		songs := e.catalog.ListSongsByAlbum(album.ID)
		fmt.Fprintf(e.out, "%-20s %s (%d songs)\n", album.ID, album.Name, len(songs))
	}
	return nil
}

type CatalogSongsParams struct {
	Album string `pos:"true" help:"Album id."`
}

func catalogSongsCmd() *cobra.Command {
	return boa.CmdT[CatalogSongsParams]{
		Use:         "songs",
		Short:       "List the tracks of an album",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *CatalogSongsParams, cmd *cobra.Command, args []string) {
			withEnv("catalog songs", func(e *env) error {
				return runCatalogSongs(e, params)
			})
		},
	}.ToCobra()
}

func runCatalogSongs(e *env, params *CatalogSongsParams) error {
	album, ok := e.catalog.GetAlbum(params.Album)
	if !ok {
		return fmt.Errorf("album %q not found", params.Album)
	}
	fmt.Fprintln(e.out, album.Name)
	for i, song := range e.catalog.ListSongsByAlbum(album.ID) {
		fmt.Fprintf(e.out, "%3d. %-32s %s\n", i+1, song.Name, song.Duration)
	}
	return nil
}

type CatalogSearchParams struct {
	Query string `pos:"true" help:"Album or song name; spacing and case are ignored."`
}

func catalogSearchCmd() *cobra.Command {
	return boa.CmdT[CatalogSearchParams]{
		Use:         "search",
		Short:       "Search albums and songs",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *CatalogSearchParams, cmd *cobra.Command, args []string) {
			withEnv("catalog search", func(e *env) error {
				return runCatalogSearch(e, params)
			})
		},
	}.ToCobra()
}

func runCatalogSearch(e *env, params *CatalogSearchParams) error {
	result := e.catalog.Search(params.Query)
	if len(result.Albums) == 0 && len(result.Songs) == 0 {
		_, err := fmt.Fprintf(e.out, "Nothing matches %q.\n", params.Query)
		return err
	}

	for _, album := range result.Albums {
		fmt.Fprintf(e.out, "album  %-20s %s\n", album.ID, album.Name)
	}
	for _, song := range result.Songs {
		fmt.Fprintf(e.out, "song   %-20s %s - %s\n", song.ID, song.Name, song.AlbumName)
	}
	return nil
}
