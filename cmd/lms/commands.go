package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/config"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/validation"
)

var errNotSignedIn = errors.New("not signed in, run `lms login` first")

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", what, s)
	}
	return id, nil
}

// --- session ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the LMS",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		return withApp(cmd.Context(), func(a *app) error {
			if !a.auth.Login(cmd.Context(), email, password) {
				return fmt.Errorf("login failed: %s", a.auth.LastError())
			}
			u := a.auth.User()
			printSuccess("Signed in as %s (%s)", u.Email, u.Role)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			a.auth.Logout()
			printSuccess("Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if !a.auth.IsAuthenticated() {
				printStatus("User", "guest")
				return nil
			}
			u := a.auth.User()
			printStatus("User", "%s", u.FullName)
			printStatus("Email", "%s", u.Email)
			printStatus("Roles", "%v", u.Roles)
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")
}

// --- courses ---

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Browse the course catalogue",
}

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		var q service.CourseQuery
		q.Search, _ = cmd.Flags().GetString("search")
		q.Category, _ = cmd.Flags().GetString("category")
		q.Level, _ = cmd.Flags().GetString("level")
		q.Page, _ = cmd.Flags().GetInt("page")
		q.Limit, _ = cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(cmd.Context(), func(a *app) error {
			courses, err := a.svc.Courses.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), courses)
			}
			for _, c := range courses {
				fmt.Fprintln(cmd.OutOrStdout(), courseLine(c))
			}
			return nil
		})
	},
}

var coursesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "course id")
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			c, err := a.svc.Courses.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		})
	},
}

func init() {
	coursesListCmd.Flags().String("search", "", "search text")
	coursesListCmd.Flags().String("category", "", "category filter")
	coursesListCmd.Flags().String("level", "", "level filter")
	coursesListCmd.Flags().Int("page", 0, "page number")
	coursesListCmd.Flags().Int("limit", 0, "page size")
	coursesListCmd.Flags().Bool("json", false, "print JSON")
	coursesCmd.AddCommand(coursesListCmd, coursesShowCmd)
}

// --- enrollments ---

var enrollCmd = &cobra.Command{
	Use:   "enroll <courseId>",
	Short: "Enroll in a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "course id")
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			if !a.auth.IsAuthenticated() {
				return errNotSignedIn
			}
			e, err := a.svc.Enrollments.Enroll(cmd.Context(), id)
			if err != nil {
				return err
			}
			printSuccess("Enrolled in course %d (%s)", e.CourseID, e.Status)
			return nil
		})
	},
}

var enrollmentsCmd = &cobra.Command{
	Use:   "enrollments",
	Short: "List your enrolled courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if !a.auth.IsAuthenticated() {
				return errNotSignedIn
			}
			list, err := a.svc.Enrollments.Mine(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range list {
				title := fmt.Sprintf("course %d", e.CourseID)
				if e.Course != nil && e.Course.Title != "" {
					title = e.Course.Title
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s %s\n", e.CourseID, title, colorize(colorDim, fmt.Sprintf("(%.0f%%)", e.Progress)))
			}
			return nil
		})
	},
}

// --- assignments ---

var assignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "List and submit assignments",
}

var assignmentsListCmd = &cobra.Command{
	Use:   "list <courseId>",
	Short: "List a course's assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "course id")
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			list, err := a.svc.Assignments.ByCourse(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, as := range list {
				due := as.DueDate
				if due == "" {
					due = "no due date"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s %s\n", as.ID, as.Title, colorize(colorDim, "("+due+")"))
			}
			return nil
		})
	},
}

var assignmentsSubmitCmd = &cobra.Command{
	Use:   "submit <assignmentId>",
	Short: "Submit an assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "assignment id")
		if err != nil {
			return err
		}
		var in service.SubmissionInput
		in.Content, _ = cmd.Flags().GetString("content")
		in.FileURL, _ = cmd.Flags().GetString("file-url")
		if err := validation.Struct(in); err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			if !a.auth.IsAuthenticated() {
				return errNotSignedIn
			}
			sub, err := a.svc.Assignments.Submit(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			printSuccess("Submitted assignment %d (submission %d)", sub.AssignmentID, sub.ID)
			return nil
		})
	},
}

func init() {
	assignmentsSubmitCmd.Flags().String("content", "", "submission text")
	assignmentsSubmitCmd.Flags().String("file-url", "", "URL of an uploaded file")
	assignmentsCmd.AddCommand(assignmentsListCmd, assignmentsSubmitCmd)
}

// --- notifications ---

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List and acknowledge notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		unread, _ := cmd.Flags().GetBool("unread")
		return withApp(cmd.Context(), func(a *app) error {
			if !a.auth.IsAuthenticated() {
				return errNotSignedIn
			}
			list, err := a.svc.Notifications.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range list {
				if unread && n.IsRead {
					continue
				}
				mark := colorize(colorYellow, "•")
				if n.IsRead {
					mark = " "
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s %s\n", mark, n.ID, n.Title, colorize(colorDim, n.Message))
			}
			return nil
		})
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "notification id")
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.svc.Notifications.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess("Marked notification %d as read", id)
			return nil
		})
	},
}

func init() {
	notificationsListCmd.Flags().Bool("unread", false, "only unread notifications")
	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a saved configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
