package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/recommend"
)

var errNoLastRecommendation = errors.New("no recommendation to refer to, run `lms recommend` or pass --recommendation")

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate a staged learning path for a goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in recommend.Input
		in.Goal, _ = cmd.Flags().GetString("goal")
		in.CurrentLevel, _ = cmd.Flags().GetString("level")
		in.Preferences, _ = cmd.Flags().GetStringSlice("pref")
		in.PreferenceText, _ = cmd.Flags().GetString("prefs")
		mode, _ := cmd.Flags().GetString("mode")
		in.Mode = recommend.Mode(mode)
		exclude, _ := cmd.Flags().GetInt64Slice("exclude")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(cmd.Context(), func(a *app) error {
			if !asJSON {
				printStep("Generating recommendation for %q...", strings.TrimSpace(in.Goal))
			}
			res, err := a.orch.Generate(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.rememberRecommendation(res.ID)
			if err := a.orch.WaitHydrated(cmd.Context()); err != nil {
				printWarning("course details incomplete: %v", err)
			}
			for _, id := range exclude {
				a.orch.MarkNotInterested(id)
			}

			groups := a.orch.Groups()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"id":       res.ID,
					"concepts": res.Concepts,
					"careers":  res.Careers,
					"stages":   groups,
				})
			}

			out := cmd.OutOrStdout()
			if len(res.Concepts) > 0 {
				fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Concepts:"), strings.Join(res.Concepts, ", "))
			}
			if len(res.Careers) > 0 {
				fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Careers:"), strings.Join(res.Careers, ", "))
			}
			inPath := make(map[int64]bool)
			for _, id := range a.orch.Path() {
				inPath[id] = true
			}
			printGroups(out, groups, func(id int64) bool { return inPath[id] })
			fmt.Fprintln(out, colorize(colorDim, "recommendation "+res.ID))
			return nil
		})
	},
}

func init() {
	recommendCmd.Flags().String("goal", "", "what you want to learn")
	recommendCmd.Flags().String("level", "", "your current level")
	recommendCmd.Flags().StringSlice("pref", nil, "preference tag (repeatable)")
	recommendCmd.Flags().String("prefs", "", "free-text preferences, comma or pipe separated")
	recommendCmd.Flags().String("mode", string(recommend.ModeGuided), "guided or direct")
	recommendCmd.Flags().Int64Slice("exclude", nil, "course ids you are not interested in")
	recommendCmd.Flags().Bool("json", false, "print JSON")
	recommendCmd.MarkFlagRequired("goal")
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a follow-up question about a recommendation",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recID, _ := cmd.Flags().GetString("recommendation")
		question := strings.TrimSpace(strings.Join(args, " "))

		return withApp(cmd.Context(), func(a *app) error {
			if recID == "" {
				recID = a.lastRecommendation()
			}
			if recID == "" {
				return errNoLastRecommendation
			}
			answer, err := a.svc.LearningPaths.Ask(cmd.Context(), recID, question)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		})
	},
}

func init() {
	askCmd.Flags().String("recommendation", "", "recommendation id (defaults to the last one)")
}

// --- clarify ---

var clarifyCmd = &cobra.Command{
	Use:   "clarify",
	Short: "Talk through a goal before generating a path",
	RunE: func(cmd *cobra.Command, args []string) error {
		goal, _ := cmd.Flags().GetString("goal")
		level, _ := cmd.Flags().GetString("level")
		prefs, _ := cmd.Flags().GetStringSlice("pref")
		questions, _ := cmd.Flags().GetStringArray("question")

		return withApp(cmd.Context(), func(a *app) error {
			conv := recommend.NewConversation(a.svc.LearningPaths, goal, level, prefs)
			// One at a time so each answer is history for the next question.
			for _, q := range questions {
				if _, err := conv.Ask(cmd.Context(), q); err != nil {
					return err
				}
				conv.Wait()
			}

			out := cmd.OutOrStdout()
			for _, t := range conv.Turns() {
				fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Q:"), t.Question)
				if t.State == recommend.TurnFailed {
					fmt.Fprintf(out, "%s %s\n", colorize(colorRed, "!"), t.Answer)
					continue
				}
				fmt.Fprintf(out, "%s %s\n", colorize(colorGreen, "A:"), t.Answer)
			}
			return nil
		})
	},
}

func init() {
	clarifyCmd.Flags().String("goal", "", "what you want to learn")
	clarifyCmd.Flags().String("level", "", "your current level")
	clarifyCmd.Flags().StringSlice("pref", nil, "preference tag (repeatable)")
	clarifyCmd.Flags().StringArrayP("question", "q", nil, "question to ask (repeatable)")
	clarifyCmd.MarkFlagRequired("question")
}

// --- path ---

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Manage your locally saved learning path",
}

var pathShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved course ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withApp(cmd.Context(), func(a *app) error {
			ids := a.orch.Path()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), ids)
			}
			if len(ids) == 0 {
				printStatus("Path", "empty")
				return nil
			}
			for i, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. course %d\n", i+1, id)
			}
			return nil
		})
	},
}

var pathAddCmd = &cobra.Command{
	Use:   "add <courseId>",
	Short: "Add a course to the path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "course id")
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.orch.AddToPath(id); err != nil {
				return err
			}
			printSuccess("Course %d is in your path (%d total)", id, len(a.orch.Path()))
			return nil
		})
	},
}

var pathRemoveCmd = &cobra.Command{
	Use:   "remove <courseId>",
	Short: "Remove a course from the path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "course id")
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.orch.RemoveFromPath(id); err != nil {
				return err
			}
			printSuccess("Course %d is not in your path (%d total)", id, len(a.orch.Path()))
			return nil
		})
	},
}

var pathSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the path to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		recID, _ := cmd.Flags().GetString("recommendation")

		return withApp(cmd.Context(), func(a *app) error {
			if !a.auth.IsAuthenticated() {
				return errNotSignedIn
			}
			if recID == "" {
				recID = a.lastRecommendation()
			}
			if recID == "" {
				return errNoLastRecommendation
			}
			id, err := a.orch.SavePathToServer(cmd.Context(), recID, name, a.orch.Path())
			if err != nil {
				return err
			}
			printSuccess("Saved learning path %d", id)
			return nil
		})
	},
}

func init() {
	pathShowCmd.Flags().Bool("json", false, "print JSON")
	pathSaveCmd.Flags().String("name", "", "name for the saved path")
	pathSaveCmd.Flags().String("recommendation", "", "recommendation id (defaults to the last one)")
	pathSaveCmd.MarkFlagRequired("name")
	pathCmd.AddCommand(pathShowCmd, pathAddCmd, pathRemoveCmd, pathSaveCmd)
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List learning paths saved to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withApp(cmd.Context(), func(a *app) error {
			if !a.auth.IsAuthenticated() {
				return errNotSignedIn
			}
			paths, err := a.svc.LearningPaths.MyPaths(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), paths)
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s %s\n", p.ID, p.Name,
					colorize(colorDim, fmt.Sprintf("(%d courses)", len(p.Items))))
			}
			return nil
		})
	},
}

func init() {
	pathsCmd.Flags().Bool("json", false, "print JSON")
}
