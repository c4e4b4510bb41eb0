package cmd

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	entity "launcher.GO/model/entity"
	catalogService "launcher.GO/service/catalog"
)

var (
	listJSON bool

	addTitle, addURL, addImage          string
	updateTitle, updateURL, updateImage string
)

var servicesListCmd = &cobra.Command{
	Use:   "services:list [category]",
	Short: "List catalog entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.Service.ListAll(ctx)
		if err != nil {
			return err
		}
		categories := entity.Categories
		if len(args) == 1 {
			if _, err := a.Service.List(ctx, args[0]); err != nil {
				return err
			}
			categories = []entity.Category{entity.Category(args[0])}
		}

		out := cmd.OutOrStdout()
		if listJSON {
			view := entity.NewDocument()
			for _, c := range categories {
				view.SetEntries(c, doc.Entries(c))
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tTITLE\tURL\tIMAGE")
		for _, c := range categories {
			for _, s := range doc.Entries(c) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c, s.Title, s.URL, s.Image)
			}
		}
		return tw.Flush()
	},
}

var servicesAddCmd = &cobra.Command{
	Use:   "services:add <category> --title <title> --url <url> [--image file]",
	Short: "Add an entry to a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		upload, closeFn, err := openUpload(addImage)
		if err != nil {
			return err
		}
		defer closeFn()

		created, err := a.Service.Create(ctx, catalogService.CreateInput{
			Category: args[0],
			Title:    addTitle,
			URL:      addURL,
			Image:    upload,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s (image %s)\n", created.Title, args[0], created.Image)
		return nil
	},
}

var servicesUpdateCmd = &cobra.Command{
	Use:   "services:update <category> <title> --url <url> [--title new] [--image file]",
	Short: "Edit an entry; the title stays unless --title is given",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		upload, closeFn, err := openUpload(updateImage)
		if err != nil {
			return err
		}
		defer closeFn()

		updated, err := a.Service.Update(ctx, catalogService.UpdateInput{
			Category:     args[0],
			CurrentTitle: args[1],
			NewTitle:     updateTitle,
			URL:          updateURL,
			Image:        upload,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %q in %s\n", updated.Title, args[0])
		return nil
	},
}

var servicesDeleteCmd = &cobra.Command{
	Use:   "services:delete <category> <title>",
	Short: "Remove an entry and its uploaded image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.Delete(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q from %s\n", args[1], args[0])
		return nil
	},
}

// openUpload opens a local image file as an upload. An empty path means no image.
func openUpload(path string) (*catalogService.Upload, func(), error) {
	noop := func() {}
	if path == "" {
		return nil, noop, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, noop, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, noop, err
	}
	up := &catalogService.Upload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        info.Size(),
		Body:        f,
	}
	return up, func() { _ = f.Close() }, nil
}

func init() {
	servicesListCmd.Flags().BoolVar(&listJSON, "json", false, "Print the catalog document as JSON")

	servicesAddCmd.Flags().StringVar(&addTitle, "title", "", "Entry title")
	servicesAddCmd.Flags().StringVar(&addURL, "url", "", "Entry URL")
	servicesAddCmd.Flags().StringVar(&addImage, "image", "", "Path to a jpeg, png or webp image")

	servicesUpdateCmd.Flags().StringVar(&updateTitle, "title", "", "New title; empty keeps the current one")
	servicesUpdateCmd.Flags().StringVar(&updateURL, "url", "", "Entry URL")
	servicesUpdateCmd.Flags().StringVar(&updateImage, "image", "", "Path to a jpeg, png or webp replacement image")

	rootCmd.AddCommand(servicesListCmd)
	rootCmd.AddCommand(servicesAddCmd)
	rootCmd.AddCommand(servicesUpdateCmd)
	rootCmd.AddCommand(servicesDeleteCmd)
}
