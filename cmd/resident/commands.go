package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/internal/pagination"
	"github.com/apartment-mgmt/resident/internal/resident"
	"github.com/apartment-mgmt/resident/pkg/errs"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errs.Validation(fs.Name(), err.Error())
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (default $RESIDENT_PASSWORD)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("RESIDENT_PASSWORD")
	}

	res, err := a.mgr.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", displayName(res.User))
	if resident.LoginDestination(&res.User) == resident.StepUpdateProfile {
		fmt.Fprintln(a.out, "This is your first login. Set your name and password with: resident profile update")
	}
	return nil
}

func (a *app) whoami() error {
	u := a.mgr.CurrentUser()
	if u == nil {
		if a.mgr.IsAuthenticated() {
			fmt.Fprintln(a.out, "Signed in, profile not cached.")
			return nil
		}
		return errNotSignedIn
	}
	return a.printJSON(u)
}

func displayName(u domain.User) string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.UserName
}

func (a *app) list(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errs.Validation("list", "resource required: apartments|parkings|lockers|complaints|surveys")
	}
	resource := args[0]
	fs := newFlags("list")
	all := fs.Bool("all", false, "fetch every page")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch resource {
	case "apartments":
		items, more, err := load(ctx, a.svc.NewApartmentList(), *all)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tOWNER\tCAPACITY")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s %s\t%d\n", it.ID, it.Name, it.Address, it.Owner.LastName, it.Owner.FirstName, it.MaxCapacity)
		}
		footer(tw, len(items), more)
	case "parkings":
		items, more, err := load(ctx, a.svc.NewParkingList(), *all)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tPLATE\tVEHICLE\tOWNER\tSTATUS\tEXPIRES")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", it.ID, it.LicensePlate, it.VehicleType, it.OwnerName, it.Status, it.ExpireDate)
		}
		footer(tw, len(items), more)
	case "lockers":
		items, more, err := load(ctx, a.svc.NewLockerItemList(), *all)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tITEM\tSTATUS\tRECEIVED")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", it.ID, it.ItemName, it.Status, it.ReceivedAt)
		}
		footer(tw, len(items), more)
	case "complaints":
		items, more, err := load(ctx, a.svc.NewComplaintList(), *all)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tCREATED")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", it.ID, it.Title, it.Status, it.CreatedAt)
		}
		footer(tw, len(items), more)
	case "surveys":
		items, more, err := load(ctx, a.svc.NewSurveyList(), *all)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", it.ID, it.Title, it.Description)
		}
		footer(tw, len(items), more)
	default:
		return errs.Validation("list", fmt.Sprintf("unknown resource %q", resource))
	}
	return nil
}

// load fetches the first page, or every page when all is set. The bool
// reports whether more pages remain.
func load[T pagination.Identifiable](ctx context.Context, l *pagination.List[T], all bool) ([]T, bool, error) {
	var err error
	if all {
		err = l.LoadAll(ctx)
	} else {
		err = l.LoadNext(ctx)
	}
	if err != nil {
		return nil, false, err
	}
	return l.Items(), !l.Exhausted(), nil
}

func footer(w io.Writer, n int, more bool) {
	if more {
		fmt.Fprintf(w, "\n%d shown, more available (use -all)\n", n)
	}
}

func (a *app) locker(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	n, err := a.svc.LockerNumber(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Your smart locker: %s\n", n)
	return nil
}

func (a *app) complaint(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errs.Validation("complaint", "subcommand required: create|show|update")
	}

	fs := newFlags("complaint " + args[0])
	id := fs.Int64("id", 0, "complaint id")
	title := fs.String("title", "", "title")
	content := fs.String("content", "", "content")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "create":
		c, _, err := a.svc.CreateComplaint(ctx, resident.ComplaintDraft{Title: *title, Content: *content})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Complaint #%d filed (%s).\n", c.ID, c.Status)
		return nil
	case "show":
		c, err := a.svc.Complaint(ctx, *id)
		if err != nil {
			return err
		}
		return a.printJSON(c)
	case "update":
		if *id == 0 {
			return errs.Validation("id", "-id is required")
		}
		c, _, err := a.svc.UpdateComplaint(ctx, *id, resident.ComplaintDraft{Title: *title, Content: *content})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Complaint #%d updated.\n", c.ID)
		return nil
	}
	return errs.Validation("complaint", fmt.Sprintf("unknown subcommand %q", args[0]))
}

func (a *app) parking(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 || args[0] != "create" {
		return errs.Validation("parking", "usage: resident parking create -plate P -owner NAME [-type motorbike|car|bicycle] [-expire YYYY-MM-DD]")
	}

	fs := newFlags("parking create")
	plate := fs.String("plate", "", "license plate")
	owner := fs.String("owner", "", "owner name")
	vehicle := fs.String("type", "", "vehicle type (default motorbike)")
	expire := fs.String("expire", "", "expire date YYYY-MM-DD (default end of year)")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	d := resident.ParkingDraft{LicensePlate: *plate, OwnerName: *owner, VehicleType: *vehicle}
	if *expire != "" {
		t, err := time.Parse(domain.DateLayout, *expire)
		if err != nil {
			return errs.Validation("expire", "expected YYYY-MM-DD")
		}
		d.ExpireDate = t
	}

	card, _, err := a.svc.CreateParkingCard(ctx, d, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Parking card #%d for %s valid until %s.\n", card.ID, card.LicensePlate, card.ExpireDate)
	return nil
}

// answerFlag collects repeated -a QUESTION=VALUE pairs.
type answerFlag map[int64]string

func (f answerFlag) String() string { return fmt.Sprint(map[int64]string(f)) }

func (f answerFlag) Set(v string) error {
	q, val, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("expected QUESTION=VALUE, got %q", v)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(q), 10, 64)
	if err != nil {
		return fmt.Errorf("question id %q: %w", q, err)
	}
	f[id] = val
	return nil
}

func (a *app) survey(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errs.Validation("survey", "subcommand required: show|answer")
	}

	fs := newFlags("survey " + args[0])
	id := fs.Int64("id", 0, "survey id")
	answers := answerFlag{}
	fs.Var(answers, "a", "answer QUESTION=CHOICE_ID or QUESTION=TEXT (repeatable)")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	sv, err := a.svc.Survey(ctx, *id)
	if err != nil {
		return err
	}

	switch args[0] {
	case "show":
		fmt.Fprintf(a.out, "%s\n%s\n\n", sv.Title, sv.Description)
		for _, q := range sv.Questions {
			fmt.Fprintf(a.out, "[%d] %s\n", q.ID, q.Text)
			for _, c := range q.Choices {
				fmt.Fprintf(a.out, "    (%d) %s\n", c.ID, c.Text)
			}
		}
		return nil
	case "answer":
		inputs := make(map[int64]resident.AnswerInput, len(answers))
		for qid, raw := range answers {
			in := resident.AnswerInput{Text: raw}
			if q, ok := sv.Question(qid); ok && q.Type == domain.QuestionMultipleChoice {
				choice, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
				if err != nil {
					return errs.Validation("a", fmt.Sprintf("question %d needs a choice id", qid))
				}
				in = resident.AnswerInput{Choice: choice}
			}
			inputs[qid] = in
		}
		if _, err := a.svc.SubmitSurvey(ctx, sv, inputs); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Thank you for your feedback!")
		return nil
	}
	return errs.Validation("survey", fmt.Sprintf("unknown subcommand %q", args[0]))
}

func (a *app) profile(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 || args[0] != "update" {
		return errs.Validation("profile", "usage: resident profile update -first F -last L [-password P -confirm P] [-avatar FILE]")
	}

	fs := newFlags("profile update")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	password := fs.String("password", "", "new password")
	confirm := fs.String("confirm", "", "confirm new password")
	avatar := fs.String("avatar", "", "path to an avatar image")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	d := resident.ProfileDraft{FirstName: *first, LastName: *last, Password: *password, ConfirmPassword: *confirm}
	if *avatar != "" {
		content, err := os.ReadFile(*avatar)
		if err != nil {
			return errs.Validation("avatar", err.Error())
		}
		d.Avatar = &api.Upload{Name: filepath.Base(*avatar), Content: content}
	}

	u, step, err := a.svc.UpdateProfile(ctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Profile updated for %s.\n", displayName(u))
	if step == resident.StepHome {
		fmt.Fprintln(a.out, "You are all set.")
	}
	return nil
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}
