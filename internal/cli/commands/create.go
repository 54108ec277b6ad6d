package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"WishBoard/internal/cli/bootstrap"
	"WishBoard/internal/cli/media"
	"WishBoard/internal/cli/model"
	"WishBoard/internal/cli/service"
	"WishBoard/internal/config"
)

// multiFlag — повторяемый строковый флаг.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type createCmd struct{}

func (createCmd) Name() string        { return "create" }
func (createCmd) Description() string { return "Create a wish from a link or from photos" }
func (createCmd) Usage() string {
	return "create (--link <url>|--photo <file>...) --category <id>... [--name n] [--select i|all]... [--price p] [--currency c] [--notes t]"
}

type createArgs struct {
	link       string
	photos     multiFlag
	categories multiFlag
	selects    multiFlag
	name       string
	price      string
	currency   string
	notes      string
}

func parseCreateArgs(args []string) (createArgs, error) {
	var a createArgs
	fs := newFlagSet("create")
	fs.StringVar(&a.link, "link", "", "product link")
	fs.Var(&a.photos, "photo", "local photo to upload (repeatable)")
	fs.Var(&a.categories, "category", "category id (repeatable)")
	fs.Var(&a.selects, "select", "scraped image to attach: 1-based index or all (repeatable)")
	fs.StringVar(&a.name, "name", "", "wish name")
	fs.StringVar(&a.price, "price", "", "price")
	fs.StringVar(&a.currency, "currency", "", "price currency")
	fs.StringVar(&a.notes, "notes", "", "notes")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return a, ErrUsage
	}
	if (a.link == "") == (len(a.photos) == 0) || len(a.categories) == 0 {
		return a, ErrUsage
	}
	if a.price != "" {
		if _, err := strconv.ParseFloat(a.price, 64); err != nil {
			return a, ErrUsage
		}
	}
	return a, nil
}

func (createCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	a, err := parseCreateArgs(args)
	if err != nil {
		return err
	}
	files := make([]model.File, 0, len(a.photos))
	for _, p := range a.photos {
		f, err := media.LoadFile(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	return withAuthSession(ctx, cfg, func(s *bootstrap.Session) error {
		flow := s.NewWishCreation()
		defer flow.Close()

		if err := prefill(flow, a); err != nil {
			return err
		}
		if len(files) > 0 {
			n, err := flow.UploadFiles(ctx, files)
			if n == 0 {
				return err
			}
			if err != nil {
				s.Logger.Warnw("photo batch partially failed", "uploaded", n, "err", err)
			}
		} else {
			if err := flow.SetLink(a.link); err != nil {
				return err
			}
			if err := flow.Continue(ctx); err != nil {
				return err
			}
		}

		if err := flow.SetCategories(a.categories); err != nil {
			return err
		}
		if err := flow.Continue(ctx); err != nil {
			return err
		}
		if err := finish(ctx, flow, a.selects); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Created wish %s\n", flow.WishID())
		return nil
	})
}

func prefill(flow *service.WishCreation, a createArgs) error {
	if err := flow.SetName(a.name); err != nil {
		return err
	}
	if err := flow.SetNotes(a.notes); err != nil {
		return err
	}
	if a.price == "" {
		return nil
	}
	p, _ := strconv.ParseFloat(a.price, 64)
	return flow.SetPrice(&p, a.currency)
}

// finish проводит мастер от выбора картинок до отправки.
func finish(ctx context.Context, flow *service.WishCreation, selects []string) error {
	for !flow.Closed() {
		switch step := flow.Position().Step; step {
		case service.StepSelectImages:
			select {
			case <-flow.MetadataDone():
			case <-ctx.Done():
				return ctx.Err()
			}
			cands, _ := flow.Candidates()
			fmt.Fprintf(Out, "Images found: %d\n", len(cands))
			picked, err := pickImages(cands, selects)
			if err != nil {
				return err
			}
			for _, u := range picked {
				if err := flow.SelectImage(u); err != nil {
					return err
				}
			}
		case service.StepAddName:
			if !flow.CanContinue() {
				return errors.New("the wish needs a name: pass --name")
			}
		case service.StepConfirm:
		default:
			return fmt.Errorf("unexpected step %s", step)
		}
		if err := flow.Continue(ctx); err != nil {
			return err
		}
	}
	return nil
}

func pickImages(cands, selects []string) ([]string, error) {
	var out []string
	for _, s := range selects {
		if s == "all" {
			return cands, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil || i < 1 || i > len(cands) {
			return nil, fmt.Errorf("--select %s: %d images available", s, len(cands))
		}
		out = append(out, cands[i-1])
	}
	return out, nil
}

func init() { RegisterCmd(createCmd{}) }
