package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/model"
)

// Step — шаг мастера создания wish.
type Step string

const (
	StepAddLink          Step = "ADD_LINK"
	StepChooseCategories Step = "CHOOSE_CATEGORIES"
	StepSelectImages     Step = "SELECT_IMAGES"
	StepAddName          Step = "ADD_NAME"
	StepAddPrice         Step = "ADD_PRICE"
	StepConfirm          Step = "CONFIRM"
)

// Variant — вариант входа в мастер.
type Variant string

const (
	StartWithLink   Variant = "START_WITH_LINK"
	StartWithPhotos Variant = "START_WITH_PHOTOS"
)

// Position is the current step together with the active variant.
type Position struct {
	Step    Step
	Variant Variant
}

// backTransitions — явный граф переходов «назад». ADD_NAME и ADD_PRICE
// возвращают на CONFIRM, а не на предыдущий шаг. Назад с ADD_LINK — выход.
var backTransitions = map[Step]Step{
	StepChooseCategories: StepAddLink,
	StepSelectImages:     StepChooseCategories,
	StepAddName:          StepConfirm,
	StepAddPrice:         StepConfirm,
	StepConfirm:          StepAddPrice,
}

var stepHeaders = map[Step]string{
	StepAddLink:          "Add the link",
	StepChooseCategories: "Choose categories",
	StepSelectImages:     "Select images",
	StepAddName:          "Give name to the wish",
	StepAddPrice:         "Add price",
	StepConfirm:          "",
}

var linkRe = regexp.MustCompile(`^https?://`)

const (
	msgTooLarge       = "File %s is too large. Try to select a smaller file."
	msgNoValidFiles   = "No valid files were selected."
	msgUploadFailed   = "Failed to upload photos. Please try again."
	msgPartialUpload  = "%d of %d photos failed to upload."
	msgMetadataFailed = "Failed to fetch images from URL. Please try again."
	msgImagesFailed   = "Failed to upload selected images: %s"
	msgCreateFailed   = "Failed to create wish: %s"
)

// Draft — несохранённое состояние создаваемого wish.
type Draft struct {
	CategoryIDs       []string
	Name              *string
	URL               *string
	Price             *float64
	Currency          *string
	Notes             *string
	Images            []model.WishImage
	SelectedImageURLs []string
}

func (d Draft) clone() Draft {
	out := d
	out.CategoryIDs = append([]string(nil), d.CategoryIDs...)
	out.Images = append([]model.WishImage(nil), d.Images...)
	out.SelectedImageURLs = append([]string(nil), d.SelectedImageURLs...)
	out.Name = cloneStr(d.Name)
	out.URL = cloneStr(d.URL)
	out.Currency = cloneStr(d.Currency)
	out.Notes = cloneStr(d.Notes)
	if d.Price != nil {
		p := *d.Price
		out.Price = &p
	}
	return out
}

// FlowOptions — настройки мастера.
type FlowOptions struct {
	MaxUploadBytes    int64
	DefaultCurrency   string
	UploadConcurrency int
}

// WishCreation drives the multi-step "create a wish" wizard. It is safe for
// concurrent use; no remote call runs under its lock.
type WishCreation struct {
	deps Deps
	opts FlowOptions
	id   string

	mu     sync.Mutex
	pos    Position
	draft  Draft
	wishID string
	busy   bool
	closed bool

	candidates   []string
	fetchingMeta bool
	metaURL      string
	metaGen      int
	metaDone     chan struct{}
}

// NewWishCreation starts an empty draft at ADD_LINK.
func NewWishCreation(deps Deps, opts FlowOptions) *WishCreation {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 7 * 1024 * 1024
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}
	if opts.UploadConcurrency <= 0 {
		opts.UploadConcurrency = 4
	}
	done := make(chan struct{})
	close(done)
	return &WishCreation{
		deps:     deps.withDefaults(),
		opts:     opts,
		id:       uuid.NewString(),
		pos:      Position{Step: StepAddLink, Variant: StartWithLink},
		metaDone: done,
	}
}

// Position returns the current step and variant.
func (f *WishCreation) Position() Position {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

// Header returns the title shown above the current step.
func (f *WishCreation) Header() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return stepHeaders[f.pos.Step]
}

// Draft returns a copy of the draft.
func (f *WishCreation) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.clone()
}

// WishID returns the backing wish id, empty until it is created.
func (f *WishCreation) WishID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wishID
}

// Closed reports whether the flow was submitted or abandoned.
func (f *WishCreation) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Candidates returns the scraped image URLs and whether they are still loading.
func (f *WishCreation) Candidates() ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.candidates...), f.fetchingMeta
}

// MetadataDone is closed when the latest metadata fetch has been applied or dropped.
func (f *WishCreation) MetadataDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metaDone
}

// CanContinue reports whether Continue is enabled right now.
func (f *WishCreation) CanContinue() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && !f.busy && f.guardLocked()
}

func (f *WishCreation) guardLocked() bool {
	switch f.pos.Step {
	case StepAddLink:
		return f.draft.URL != nil && linkRe.MatchString(*f.draft.URL)
	case StepChooseCategories:
		return len(f.draft.CategoryIDs) > 0
	case StepAddName:
		return f.draft.Name != nil && strings.TrimSpace(*f.draft.Name) != ""
	default:
		return true
	}
}

// SetLink sets the product link. An empty value clears it.
func (f *WishCreation) SetLink(link string) error {
	return f.edit(func(d *Draft) { d.URL = optional(link) })
}

// SetName sets the wish name. An empty value clears it.
func (f *WishCreation) SetName(name string) error {
	return f.edit(func(d *Draft) { d.Name = optional(name) })
}

// SetNotes sets free-text notes. An empty value clears them.
func (f *WishCreation) SetNotes(notes string) error {
	return f.edit(func(d *Draft) { d.Notes = optional(notes) })
}

// SetPrice sets price and currency; nil price clears both.
func (f *WishCreation) SetPrice(price *float64, currency string) error {
	return f.edit(func(d *Draft) {
		if price == nil {
			d.Price, d.Currency = nil, nil
			return
		}
		p := *price
		d.Price = &p
		d.Currency = optional(strings.ToUpper(currency))
	})
}

// SetCategories replaces the category selection; duplicates are dropped.
func (f *WishCreation) SetCategories(ids []string) error {
	return f.edit(func(d *Draft) {
		d.CategoryIDs = d.CategoryIDs[:0:0]
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			d.CategoryIDs = append(d.CategoryIDs, id)
		}
	})
}

// ToggleCategory adds id to the selection or removes it.
func (f *WishCreation) ToggleCategory(id string) error {
	return f.edit(func(d *Draft) {
		for i, c := range d.CategoryIDs {
			if c == id {
				d.CategoryIDs = append(d.CategoryIDs[:i:i], d.CategoryIDs[i+1:]...)
				return
			}
		}
		d.CategoryIDs = append(d.CategoryIDs, id)
	})
}

// SelectImage marks a scraped candidate for upload at SELECT_IMAGES.
func (f *WishCreation) SelectImage(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	known := false
	for _, c := range f.candidates {
		if c == url {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownImage
	}
	for _, s := range f.draft.SelectedImageURLs {
		if s == url {
			return nil
		}
	}
	f.draft.SelectedImageURLs = append(f.draft.SelectedImageURLs, url)
	return nil
}

// DeselectImage removes url from the selection.
func (f *WishCreation) DeselectImage(url string) error {
	return f.edit(func(d *Draft) {
		for i, s := range d.SelectedImageURLs {
			if s == url {
				d.SelectedImageURLs = append(d.SelectedImageURLs[:i:i], d.SelectedImageURLs[i+1:]...)
				return
			}
		}
	})
}

func (f *WishCreation) edit(fn func(d *Draft)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	fn(&f.draft)
	return nil
}

// EditName jumps from CONFIRM to ADD_NAME; back from there returns to CONFIRM.
func (f *WishCreation) EditName() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	if f.busy {
		return ErrBusy
	}
	if f.pos.Step != StepConfirm {
		return ErrWrongStep
	}
	f.pos.Step = StepAddName
	return nil
}

// Back performs the back action. It reports exited=true when the flow was
// left from ADD_LINK.
func (f *WishCreation) Back() (exited bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false, ErrFlowClosed
	}
	if f.busy {
		return false, ErrBusy
	}
	if f.pos.Step == StepAddLink {
		f.closeLocked()
		return true, nil
	}
	next := backTransitions[f.pos.Step]
	if next == StepAddLink {
		f.pos.Variant = StartWithLink
	}
	f.pos.Step = next
	return false, nil
}

// Close abandons the flow. Late results of in-flight requests are dropped.
func (f *WishCreation) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *WishCreation) closeLocked() {
	if f.closed {
		return
	}
	f.closed = true
	f.metaGen++
	f.deps.Logger.Debugw("wish flow closed", "flow", f.id, "step", f.pos.Step, "wish_id", f.wishID)
}

// begin занимает мастер под одно действие; guard проверяет условие шага.
func (f *WishCreation) begin(guard bool) (Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.closed:
		return f.pos, ErrFlowClosed
	case f.busy:
		return f.pos, ErrBusy
	case guard && !f.guardLocked():
		return f.pos, ErrContinueDisabled
	}
	f.busy = true
	return f.pos, nil
}

func (f *WishCreation) end() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

// commit применяет результат действия, если мастер ещё открыт.
func (f *WishCreation) commit(fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	fn()
	return nil
}

// Continue performs the forward action of the current step.
func (f *WishCreation) Continue(ctx context.Context) error {
	pos, err := f.begin(true)
	if err != nil {
		return err
	}
	defer f.end()

	f.deps.Logger.Debugw("wish flow continue", "flow", f.id, "step", pos.Step, "variant", pos.Variant)

	switch pos.Step {
	case StepAddLink:
		return f.continueFromLink(ctx)
	case StepChooseCategories:
		return f.commit(func() {
			if f.pos.Variant == StartWithPhotos {
				f.draft.URL = nil
				f.pos.Step = StepAddName
				return
			}
			f.pos.Step = StepSelectImages
		})
	case StepSelectImages:
		return f.continueFromImages(ctx)
	case StepAddName, StepAddPrice:
		return f.commit(func() { f.pos.Step = StepConfirm })
	case StepConfirm:
		return f.submit(ctx)
	}
	return ErrWrongStep
}

// ensureWish создаёт backing wish не более одного раза за время жизни черновика.
// Вызывается только внутри begin/end, поэтому гонок за wishID нет.
func (f *WishCreation) ensureWish(ctx context.Context) (string, error) {
	f.mu.Lock()
	id := f.wishID
	f.mu.Unlock()
	if id != "" {
		return id, nil
	}
	wish, err := f.deps.Gateway.CreateWish(ctx)
	if err != nil {
		f.deps.Notifier.Notify(fmt.Sprintf(msgCreateFailed, err))
		return "", fmt.Errorf("create wish: %w", err)
	}
	f.mu.Lock()
	f.wishID = wish.ID
	f.mu.Unlock()
	f.deps.Logger.Debugw("backing wish created", "flow", f.id, "wish_id", wish.ID)
	return wish.ID, nil
}

func (f *WishCreation) continueFromLink(ctx context.Context) error {
	if _, err := f.ensureWish(ctx); err != nil {
		return err
	}

	var (
		link  string
		gen   int
		done  chan struct{}
		fetch bool
	)
	err := f.commit(func() {
		if f.draft.URL != nil {
			link = *f.draft.URL
		}
		f.pos.Variant = StartWithLink
		f.pos.Step = StepChooseCategories
		if link == f.metaURL {
			return
		}
		fetch = true
		f.metaURL = link
		f.metaGen++
		gen = f.metaGen
		f.candidates = nil
		f.draft.SelectedImageURLs = nil
		f.fetchingMeta = true
		done = make(chan struct{})
		f.metaDone = done
	})
	if err != nil {
		return err
	}
	if fetch {
		go f.fetchMetadata(context.WithoutCancel(ctx), gen, link, done)
	}
	return nil
}

// dropMetadataLocked discards scraped candidates and any fetch still in flight.
func (f *WishCreation) dropMetadataLocked() {
	f.metaGen++
	f.metaURL = ""
	f.candidates = nil
	f.fetchingMeta = false
	f.draft.SelectedImageURLs = nil
}

// fetchMetadata runs in the background; its result is applied only if the
// flow is still open and no newer fetch was started.
func (f *WishCreation) fetchMetadata(ctx context.Context, gen int, link string, done chan struct{}) {
	defer close(done)
	meta, err := f.deps.Gateway.FetchLinkMetadata(ctx, link)

	f.mu.Lock()
	if f.closed || gen != f.metaGen {
		f.mu.Unlock()
		f.deps.Logger.Debugw("late metadata dropped", "flow", f.id, "url", link)
		return
	}
	f.fetchingMeta = false
	if err != nil {
		// следующий continue с той же ссылкой должен запросить заново
		f.metaURL = ""
		f.mu.Unlock()
		f.deps.Logger.Warnw("link metadata failed", "flow", f.id, "url", link, "err", err)
		f.deps.Notifier.Notify(msgMetadataFailed)
		return
	}
	f.candidates = append([]string(nil), meta.ImageURLs...)
	d := &f.draft
	if d.Name == nil && meta.ProductName != "" {
		d.Name = optional(meta.ProductName)
	}
	if d.Price == nil && meta.Price != nil {
		p := *meta.Price
		d.Price = &p
	}
	if d.Currency == nil && meta.Currency != "" {
		d.Currency = optional(strings.ToUpper(meta.Currency))
	}
	if d.Notes == nil && meta.Description() != "" {
		d.Notes = optional(meta.Description())
	}
	f.mu.Unlock()
}

func (f *WishCreation) continueFromImages(ctx context.Context) error {
	f.mu.Lock()
	selected := append([]string(nil), f.draft.SelectedImageURLs...)
	f.mu.Unlock()

	if len(selected) > 0 {
		wishID, err := f.ensureWish(ctx)
		if err != nil {
			return err
		}
		imgs, err := f.deps.Gateway.UploadImagesByURL(ctx, wishID, selected)
		if err != nil {
			f.deps.Notifier.Notify(fmt.Sprintf(msgImagesFailed, err))
			return fmt.Errorf("upload images by url: %w", err)
		}
		if len(imgs) == 0 {
			f.deps.Notifier.Notify(msgUploadFailed)
			return ErrUploadFailed
		}
		if len(imgs) < len(selected) {
			f.deps.Notifier.Notify(fmt.Sprintf(msgPartialUpload, len(selected)-len(imgs), len(selected)))
		}
		err = f.commit(func() {
			f.draft.Images = append(f.draft.Images, imgs...)
			f.draft.SelectedImageURLs = nil
		})
		if err != nil {
			return err
		}
	}

	return f.commit(func() {
		if f.draft.Name != nil && strings.TrimSpace(*f.draft.Name) != "" {
			f.pos.Step = StepConfirm
			return
		}
		f.pos.Step = StepAddName
	})
}

func (f *WishCreation) payloadLocked() model.UpdateWishRequest {
	d := f.draft.clone()
	req := model.UpdateWishRequest{
		Name:        d.Name,
		Notes:       d.Notes,
		URL:         d.URL,
		Price:       d.Price,
		Currency:    d.Currency,
		CategoryIDs: d.CategoryIDs,
	}
	if req.Price != nil && req.Currency == nil {
		req.Currency = optional(f.opts.DefaultCurrency)
	}
	return req
}

func (f *WishCreation) submit(ctx context.Context) error {
	wishID, err := f.ensureWish(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	req := f.payloadLocked()
	f.mu.Unlock()

	wish, err := f.deps.Gateway.UpdateWish(ctx, wishID, req)
	if err != nil {
		f.deps.Notifier.Notify(fmt.Sprintf(msgCreateFailed, err))
		return fmt.Errorf("submit wish: %w", err)
	}

	f.deps.Cache.Invalidate(cache.UserWishes)
	if err := f.commit(f.closeLocked); err != nil {
		return err
	}
	f.deps.Store.AppendOwnWish(wish)
	f.deps.Logger.Infow("wish created", "flow", f.id, "wish_id", wish.ID)
	return nil
}

// UploadFiles uploads local photos. At ADD_LINK it switches the flow to the
// photo variant and moves to CHOOSE_CATEGORIES; at CONFIRM it only appends
// the photos. It returns the number of uploaded files; a partial failure
// returns n > 0 together with the aggregated error.
func (f *WishCreation) UploadFiles(ctx context.Context, files []model.File) (int, error) {
	pos, err := f.begin(false)
	if err != nil {
		return 0, err
	}
	defer f.end()
	if pos.Step != StepAddLink && pos.Step != StepConfirm {
		return 0, ErrWrongStep
	}

	accepted := make([]model.File, 0, len(files))
	for _, file := range files {
		if file.Size > f.opts.MaxUploadBytes {
			f.deps.Notifier.Notify(fmt.Sprintf(msgTooLarge, file.Name))
			continue
		}
		accepted = append(accepted, file)
	}
	if len(accepted) == 0 {
		f.deps.Notifier.Notify(msgNoValidFiles)
		return 0, ErrNoValidFiles
	}

	wishID, err := f.ensureWish(ctx)
	if err != nil {
		return 0, err
	}

	results := make([]*model.WishImage, len(accepted))
	var (
		mu   sync.Mutex
		merr *multierror.Error
		g    errgroup.Group
	)
	g.SetLimit(f.opts.UploadConcurrency)
	for i, file := range accepted {
		g.Go(func() error {
			img, err := f.deps.Gateway.UploadImageFile(ctx, wishID, file)
			if err != nil {
				mu.Lock()
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", file.Name, err))
				mu.Unlock()
				return nil
			}
			results[i] = &img
			return nil
		})
	}
	_ = g.Wait()

	uploaded := make([]model.WishImage, 0, len(results))
	for _, r := range results {
		if r != nil {
			uploaded = append(uploaded, *r)
		}
	}
	if len(uploaded) == 0 {
		f.deps.Notifier.Notify(msgUploadFailed)
		return 0, fmt.Errorf("%w: %w", ErrUploadFailed, merr.ErrorOrNil())
	}
	if merr != nil {
		f.deps.Logger.Warnw("some photos failed to upload", "flow", f.id, "err", merr)
		f.deps.Notifier.Notify(fmt.Sprintf(msgPartialUpload, merr.Len(), len(accepted)))
	}

	err = f.commit(func() {
		f.draft.Images = append(f.draft.Images, uploaded...)
		if f.pos.Step == StepAddLink {
			f.pos.Variant = StartWithPhotos
			f.pos.Step = StepChooseCategories
			f.dropMetadataLocked()
		}
	})
	if err != nil {
		return len(uploaded), err
	}
	return len(uploaded), merr.ErrorOrNil()
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
