package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/internal/forum"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// newFeedCmd builds the commands for one local feed. name is "forum" or
// "gram".
func newFeedCmd(c *cli, name, short string) *cobra.Command {
	feed := func() *forum.Store {
		if name == "gram" {
			return c.app.gram
		}
		return c.app.forum
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
	}

	var tag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				posts []types.ForumPost
				err   error
			)
			if tag != "" {
				posts, err = feed().ListByTag(ctx, tag)
			} else {
				posts, err = feed().List(ctx)
			}
			if err != nil {
				return err
			}
			if posts == nil {
				posts = []types.ForumPost{}
			}
			return c.emit(cmd, posts, func(w io.Writer) {
				if len(posts) == 0 {
					fmt.Fprintln(w, "No posts yet.")
					return
				}
				rows := make([][]string, 0, len(posts))
				for _, p := range posts {
					rows = append(rows, []string{
						p.ID, truncate(p.Title, 36), strings.Join(p.Tags, ","),
						strconv.Itoa(p.Likes), strconv.Itoa(len(p.Comments)), relative(p.Date, c.now()),
					})
				}
				printTable(w, []string{"ID", "TITLE", "TAGS", "LIKES", "COMMENTS", "POSTED"}, rows)
			})
		},
	}
	listCmd.Flags().StringVar(&tag, "tag", "", "only posts with this tag")

	showCmd := &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post with its comments",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := feed().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, p, func(w io.Writer) {
				now := c.now()
				fmt.Fprintf(w, "%s\n", p.Title)
				fmt.Fprintf(w, "by %s, %s, %d like(s)\n\n", p.AuthorID, relative(p.Date, now), p.Likes)
				fmt.Fprintln(w, p.Content)
				if p.Image != nil {
					fmt.Fprintf(w, "image: %s\n", *p.Image)
				}
				for _, cm := range p.Comments {
					fmt.Fprintf(w, "\n  [%s] %s (%s, %d like(s))\n    %s\n", cm.ID, cm.AuthorID, relative(cm.Date, now), cm.Likes, cm.Content)
				}
			})
		},
	}

	var (
		post  types.ForumPost
		image string
	)
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post as the logged-in user",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := c.currentUser(ctx)
			if err != nil {
				return err
			}
			post.AuthorID = u.ID
			if image != "" {
				post.Image = &image
			}
			created, err := feed().Create(ctx, post)
			if err != nil {
				return err
			}
			return c.emit(cmd, created, func(w io.Writer) {
				fmt.Fprintf(w, "Posted %s\n", created.ID)
			})
		},
	}
	postCmd.Flags().StringVar(&post.Title, "title", "", "post title")
	postCmd.Flags().StringVar(&post.Content, "content", "", "post body")
	postCmd.Flags().StringSliceVar(&post.Tags, "tags", nil, "tags")
	postCmd.Flags().StringVar(&image, "image", "", "image URI")

	likeCmd := &cobra.Command{
		Use:   "like <post-id> [comment-id]",
		Short: "Like a post, or one of its comments",
		Args:  positional(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 2 {
				cm, err := feed().LikeComment(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return c.emit(cmd, cm, func(w io.Writer) {
					fmt.Fprintf(w, "Comment now has %d like(s)\n", cm.Likes)
				})
			}
			p, err := feed().Like(ctx, args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, p, func(w io.Writer) {
				fmt.Fprintf(w, "Post now has %d like(s)\n", p.Likes)
			})
		},
	}

	commentCmd := &cobra.Command{
		Use:   "comment <post-id> <text>",
		Short: "Comment on a post as the logged-in user",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := c.currentUser(ctx)
			if err != nil {
				return err
			}
			cm, err := feed().Comment(ctx, args[0], u.ID, args[1])
			if err != nil {
				return err
			}
			return c.emit(cmd, cm, func(w io.Writer) {
				fmt.Fprintf(w, "Commented %s\n", cm.ID)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete a post",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := feed().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted post %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, postCmd, likeCmd, commentCmd, deleteCmd)
	return cmd
}
