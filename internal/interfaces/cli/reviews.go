package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/state"
)

func newReviewsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Aliases: []string{"review"},
		Short:   "Read and write product reviews",
	}

	cmd.AddCommand(newReviewsListCommand(a))
	cmd.AddCommand(newReviewsCreateCommand(a))
	cmd.AddCommand(newReviewsDeleteCommand(a))

	return cmd
}

func newReviewsListCommand(a *app) *cobra.Command {
	var productID string
	var withImages, topRated, recent bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reviews, for one product or all",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}

			var reviews []domain.Review
			if productID != "" {
				if err := svc.Storefront.GetProductReviews(cmd.Context(), productID); err != nil {
					return err
				}
				reviews = state.ProductReviews(svc.State.State(), productID)
			} else {
				svc.Storefront.GetAllReviews(cmd.Context())
				st := svc.State.State()
				switch {
				case recent:
					reviews = state.RecentReviews(st)
				case topRated:
					reviews = state.TopRatedReviews(st)
				case withImages:
					reviews = state.ReviewsWithImages(st)
				default:
					reviews = state.AllReviews(st)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderReviews(reviews))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&productID, "product", "p", "", "Only reviews of this product")
	flags.BoolVar(&recent, "recent", false, "Only the 10 most recent reviews")
	flags.BoolVar(&topRated, "top", false, "Only reviews rated 4 or more")
	flags.BoolVar(&withImages, "with-images", false, "Only reviews with images")
	cmd.MarkFlagsMutuallyExclusive("recent", "top", "with-images")

	return cmd
}

func newReviewsCreateCommand(a *app) *cobra.Command {
	var form domain.ReviewForm
	var images []string

	cmd := &cobra.Command{
		Use:     "create <product-id>",
		Short:   "Review a product",
		Example: `  shop reviews create 64f1c0 --rating 5 --text "Sturdy and well made" --image photo.jpg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.ProductID = args[0]
			for _, path := range images {
				img, err := loadImage(path)
				if err != nil {
					return err
				}
				form.Images = append(form.Images, img)
			}

			svc, err := a.services(cmd)
			if err != nil {
				return err
			}

			posted := false
			if err := svc.Storefront.CreateReview(cmd.Context(), form, func() { posted = true }); err != nil {
				return err
			}
			if !posted {
				return fmt.Errorf("review was not posted")
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Review posted"))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&form.Rating, "rating", "r", 0, "Rating from 1 to 5")
	flags.StringVarP(&form.Text, "text", "t", "", "Review text, at least 10 characters")
	flags.StringArrayVar(&images, "image", nil, "Image to attach (repeatable)")

	return cmd
}

func newReviewsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <review-id>",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Storefront.DeleteReview(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted review "+args[0])
			return nil
		},
	}
}

func loadImage(path string) (domain.FileAttachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.FileAttachment{}, fmt.Errorf("failed to read image: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	return domain.FileAttachment{
		Field:       "images",
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Content:     content,
	}, nil
}
