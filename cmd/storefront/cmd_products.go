// cmd/storefront/cmd_products.go
package main

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	productdom "anusswar/internal/domain/product"
	reqdom "anusswar/internal/domain/request"
)

var (
	productsCategory string
	seedFile         string
	seedImagesDir    string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products, optionally filtered by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := online()
		if err != nil {
			return err
		}
		ps, err := uc.Catalog.List(cmd.Context(), productsCategory)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
		for _, p := range ps {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, p.Price.String(), p.Stock)
		}
		return tw.Flush()
	},
}

var productsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := online()
		if err != nil {
			return err
		}
		p, err := uc.Catalog.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %s\n", p.ID, p.Name)
		fmt.Fprintf(out, "Category: %s\nPrice: %s\nStock: %d\nSKU: %s\n", p.Category, p.Price.String(), p.Stock, p.SKU)
		if p.Description != "" {
			fmt.Fprintf(out, "\n%s\n", p.Description)
		}
		for _, f := range p.Features {
			fmt.Fprintf(out, "  - %s\n", f)
		}
		if p.VideoURL != "" {
			fmt.Fprintf(out, "Video: %s\n", p.VideoURL)
		}
		return nil
	},
}

var seedProductsCmd = &cobra.Command{
	Use:   "seed-products",
	Short: "Upsert products from a YAML (or JSON) catalog file",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := online()
		if err != nil {
			return err
		}
		ps, err := loadCatalogFile(seedFile)
		if err != nil {
			return err
		}
		if seedImagesDir != "" {
			if uc.Images == nil {
				return errors.New("--images-dir needs an image bucket (GCS_BUCKET)")
			}
			n, err := uploadSeedImages(cmd.Context(), uc.Images, seedImagesDir, ps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d image(s)\n", n)
		}
		n, err := uc.Catalog.Seed(cmd.Context(), ps)
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d of %d product(s)\n", n, len(ps))
		return err
	},
}

func init() {
	productsListCmd.Flags().StringVar(&productsCategory, "category", "", "Only this category")
	productsCmd.AddCommand(productsListCmd, productsShowCmd)

	seedProductsCmd.Flags().StringVar(&seedFile, "file", "", "Catalog file")
	seedProductsCmd.Flags().StringVar(&seedImagesDir, "images-dir", "", "Upload product images found in this directory")
	_ = seedProductsCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(productsCmd, seedProductsCmd)
}

// catalogFile accepts either a top-level list or {products: [...]}.
type catalogFile struct {
	Products []productdom.Product `yaml:"products"`
}

func loadCatalogFile(path string) ([]productdom.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "[") {
		var ps []productdom.Product
		if err := yaml.Unmarshal(raw, &ps); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
		return ps, nil
	}

	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return f.Products, nil
}

// uploadSeedImages replaces every image reference that names a file in dir
// with the uploaded object's URL. Other references are left as they are.
func uploadSeedImages(ctx context.Context, store reqdom.ImageStore, dir string, ps []productdom.Product) (int, error) {
	n := 0
	upload := func(id, ref string) (string, error) {
		path := filepath.Join(dir, filepath.Base(ref))
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return ref, nil
			}
			return "", errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()

		obj := fmt.Sprintf("products/%s/%s", id, filepath.Base(ref))
		url, err := store.Upload(ctx, obj, mime.TypeByExtension(filepath.Ext(ref)), f)
		if err != nil {
			return "", errors.Wrapf(err, "upload %s", path)
		}
		n++
		return url, nil
	}

	for i := range ps {
		p := &ps[i]
		if p.Image != "" {
			url, err := upload(p.ID, p.Image)
			if err != nil {
				return n, err
			}
			p.Image = url
		}
		for j, ref := range p.AdditionalImages {
			url, err := upload(p.ID, ref)
			if err != nil {
				return n, err
			}
			p.AdditionalImages[j] = url
		}
	}
	return n, nil
}
