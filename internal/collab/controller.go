package collab

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
	"github.com/PRANJALBANSALJI/Kanban/internal/store"
)

// reloadTimeout bounds the store round-trip for a change-feed-triggered reload.
const reloadTimeout = 10 * time.Second

// Store is the slice of the durable store the controller needs. Satisfied by
// *store.Store.
type Store interface {
	BoardTree(ctx context.Context, boardID string) ([]models.Column, error)
	MoveCard(ctx context.Context, cardID, toColumnID string, position int) (*models.Card, error)
	CreateColumn(ctx context.Context, boardID, title string) (*models.Column, error)
	RenameColumn(ctx context.Context, columnID, title string) (*models.Column, error)
	DeleteColumn(ctx context.Context, columnID string) error
	CreateCard(ctx context.Context, columnID, createdBy string, draft store.CardDraft) (*models.Card, error)
	UpdateCard(ctx context.Context, cardID string, changes store.CardChanges) (*models.Card, error)
	DeleteCard(ctx context.Context, cardID string) error
}

// Controller owns the authoritative in-memory column/card tree for one
// board. Local mutations persist first and reflect locally only on success;
// remote changes arriving on the change feed trigger a full reload of the
// tree, replaced atomically. All tree mutation happens under one mutex, one
// callback at a time.
type Controller struct {
	boardID  string
	store    Store
	feed     *ChangeFeed
	presence *Presence // optional; focus updates on drag transitions

	mu       sync.Mutex
	columns  []models.Column
	dragging string
	closed   bool
}

// NewController loads the board tree and subscribes to the board's change
// feed. presence may be nil.
func NewController(ctx context.Context, hub *realtime.Hub, st Store, boardID string, presence *Presence) (*Controller, error) {
	tree, err := st.BoardTree(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("collab: load board %s: %w", boardID, err)
	}
	sortTree(tree)

	c := &Controller{
		boardID:  boardID,
		store:    st,
		presence: presence,
		columns:  tree,
	}
	c.feed = SubscribeBoard(hub, boardID, ChangeFeedHandlers{
		OnCardChange:   func(realtime.ChangeEvent) { c.absorbRemoteChange() },
		OnColumnChange: func(realtime.ChangeEvent) { c.absorbRemoteChange() },
		OnCardMove:     c.observeMove,
	})
	return c, nil
}

// Columns returns a snapshot copy of the ordered tree.
func (c *Controller) Columns() []models.Column {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyTree(c.columns)
}

// Dragging returns the id of the card currently being dragged, if any.
func (c *Controller) Dragging() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// DragStart marks the card as in flight and publishes it as the local
// participant's focused card.
func (c *Controller) DragStart(cardID string) {
	c.mu.Lock()
	c.dragging = cardID
	c.mu.Unlock()
	if c.presence != nil {
		c.presence.UpdateCurrentCard(cardID)
	}
}

// DragCancel returns the dragged card to its stable state without any
// mutation.
func (c *Controller) DragCancel() {
	c.mu.Lock()
	c.dragging = ""
	c.mu.Unlock()
	if c.presence != nil {
		c.presence.UpdateCurrentCard("")
	}
}

// DragEnd commits the drag: overID is either a column id (append to its
// end) or a card id (insert at that card's position). The destination and
// position are derived at commit time from the current tree, never cached.
// Ordering within the action is strictly persist, then broadcast, then
// optimistic local apply; on persist failure the tree is left unchanged.
func (c *Controller) DragEnd(ctx context.Context, overID string) error {
	c.mu.Lock()
	cardID := c.dragging
	c.dragging = ""

	if cardID == "" || overID == "" {
		c.mu.Unlock()
		c.clearFocus()
		return nil
	}

	card, fromColumn := c.findCardLocked(cardID)
	if card == nil {
		c.mu.Unlock()
		c.clearFocus()
		return nil
	}

	toColumn, position, ok := c.resolveDropLocked(overID)
	if !ok {
		c.mu.Unlock()
		c.clearFocus()
		return nil
	}

	// Identical column and position: no store mutation, no broadcast.
	if toColumn == fromColumn && position == card.Position {
		c.mu.Unlock()
		c.clearFocus()
		return nil
	}
	c.mu.Unlock()
	c.clearFocus()

	if _, err := c.store.MoveCard(ctx, cardID, toColumn, position); err != nil {
		log.Printf("collab: board %s: move card %s: %v", c.boardID, cardID, err)
		return fmt.Errorf("collab: move card %s: %w", cardID, err)
	}

	if err := c.feed.BroadcastCardMove(cardID, fromColumn, toColumn, position); err != nil {
		log.Printf("collab: board %s: %v", c.boardID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.applyMoveLocked(cardID, toColumn, position)
	return nil
}

// resolveDropLocked interprets the drop target: a column id means append to
// that column's end, a card id means insert at that card's position.
func (c *Controller) resolveDropLocked(overID string) (columnID string, position int, ok bool) {
	for i := range c.columns {
		if c.columns[i].ID == overID {
			return overID, len(c.columns[i].Cards), true
		}
	}
	if overCard, overColumn := c.findCardLocked(overID); overCard != nil {
		return overColumn, overCard.Position, true
	}
	return "", 0, false
}

// findCardLocked returns the card and its column id, or nil.
func (c *Controller) findCardLocked(cardID string) (*models.Card, string) {
	for i := range c.columns {
		for j := range c.columns[i].Cards {
			if c.columns[i].Cards[j].ID == cardID {
				return &c.columns[i].Cards[j], c.columns[i].ID
			}
		}
	}
	return nil, ""
}

// applyMoveLocked splices the card out of its current column and into the
// destination, renumbering both so positions stay dense. Defensive against
// concurrent reloads: if the card or destination vanished, the next reload
// reconciles.
func (c *Controller) applyMoveLocked(cardID, toColumnID string, position int) {
	var moved *models.Card
	for i := range c.columns {
		cards := c.columns[i].Cards
		for j := range cards {
			if cards[j].ID == cardID {
				cp := cards[j]
				moved = &cp
				c.columns[i].Cards = append(cards[:j:j], cards[j+1:]...)
				renumber(c.columns[i].Cards)
				break
			}
		}
		if moved != nil {
			break
		}
	}
	if moved == nil {
		return
	}

	for i := range c.columns {
		if c.columns[i].ID != toColumnID {
			continue
		}
		cards := c.columns[i].Cards
		if position < 0 {
			position = 0
		}
		if position > len(cards) {
			position = len(cards)
		}
		moved.ColumnID = toColumnID
		cards = append(cards, models.Card{})
		copy(cards[position+1:], cards[position:])
		cards[position] = *moved
		c.columns[i].Cards = cards
		renumber(c.columns[i].Cards)
		return
	}
}

func (c *Controller) clearFocus() {
	if c.presence != nil {
		c.presence.UpdateCurrentCard("")
	}
}

// AddColumn persists a new column and reflects it locally on success.
func (c *Controller) AddColumn(ctx context.Context, title string) (*models.Column, error) {
	col, err := c.store.CreateColumn(ctx, c.boardID, title)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.columns = append(c.columns, *col)
		sortTree(c.columns)
	}
	return col, nil
}

// RenameColumn persists a column title change and reflects it locally on
// success.
func (c *Controller) RenameColumn(ctx context.Context, columnID, title string) error {
	if _, err := c.store.RenameColumn(ctx, columnID, title); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	for i := range c.columns {
		if c.columns[i].ID == columnID {
			c.columns[i].Title = title
			break
		}
	}
	return nil
}

// DeleteColumn persists the deletion and removes the column locally on
// success, renumbering the remaining columns.
func (c *Controller) DeleteColumn(ctx context.Context, columnID string) error {
	if err := c.store.DeleteColumn(ctx, columnID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	for i := range c.columns {
		if c.columns[i].ID == columnID {
			c.columns = append(c.columns[:i:i], c.columns[i+1:]...)
			break
		}
	}
	for i := range c.columns {
		c.columns[i].Position = i
	}
	return nil
}

// AddCard persists a new card and appends it to its column locally on
// success.
func (c *Controller) AddCard(ctx context.Context, columnID, createdBy string, draft store.CardDraft) (*models.Card, error) {
	card, err := c.store.CreateCard(ctx, columnID, createdBy, draft)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		for i := range c.columns {
			if c.columns[i].ID == columnID {
				c.columns[i].Cards = append(c.columns[i].Cards, *card)
				sortCards(c.columns[i].Cards)
				break
			}
		}
	}
	return card, nil
}

// UpdateCard persists field changes and reflects them locally on success.
func (c *Controller) UpdateCard(ctx context.Context, cardID string, changes store.CardChanges) error {
	updated, err := c.store.UpdateCard(ctx, cardID, changes)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	for i := range c.columns {
		for j := range c.columns[i].Cards {
			if c.columns[i].Cards[j].ID == cardID {
				// Keep the local position; the update never moves the card.
				pos := c.columns[i].Cards[j].Position
				c.columns[i].Cards[j] = *updated
				c.columns[i].Cards[j].Position = pos
				return nil
			}
		}
	}
	return nil
}

// DeleteCard persists the deletion and removes the card locally on success,
// renumbering its column.
func (c *Controller) DeleteCard(ctx context.Context, cardID string) error {
	if err := c.store.DeleteCard(ctx, cardID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	for i := range c.columns {
		cards := c.columns[i].Cards
		for j := range cards {
			if cards[j].ID == cardID {
				c.columns[i].Cards = append(cards[:j:j], cards[j+1:]...)
				renumber(c.columns[i].Cards)
				return nil
			}
		}
	}
	return nil
}

// Reload replaces the whole tree from the store. The swap is atomic: either
// the entire new tree is installed or the old one is kept.
func (c *Controller) Reload(ctx context.Context) error {
	tree, err := c.store.BoardTree(ctx, c.boardID)
	if err != nil {
		return fmt.Errorf("collab: reload board %s: %w", c.boardID, err)
	}
	sortTree(tree)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.columns = tree
	return nil
}

// absorbRemoteChange is the change-feed absorption policy: any remote
// card/column mutation triggers a full reload rather than a targeted merge.
// Coarse, but it guarantees eventual convergence; a failed reload is logged
// and retried by whichever event arrives next.
func (c *Controller) absorbRemoteChange() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	if err := c.Reload(ctx); err != nil {
		log.Printf("collab: board %s: %v", c.boardID, err)
	}
}

// observeMove receives peers' move broadcasts. They are hints only; the
// change feed remains the source of truth, so nothing is applied here and a
// missed broadcast is never an error.
func (c *Controller) observeMove(p MovePayload) {
	log.Printf("collab: board %s: peer moved card %s %s -> %s pos %d",
		c.boardID, p.CardID, p.FromColumn, p.ToColumn, p.Position)
}

// Close unsubscribes the change feed and stops all future local applies.
// Idempotent. In-flight store mutations are allowed to complete; their
// optimistic-apply step observes closed and leaves shared state alone.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.feed.Close()
}

func sortTree(columns []models.Column) {
	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].Position < columns[j].Position
	})
	for i := range columns {
		sortCards(columns[i].Cards)
	}
}

func sortCards(cards []models.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Position < cards[j].Position
	})
}

func renumber(cards []models.Card) {
	for i := range cards {
		cards[i].Position = i
	}
}

func copyTree(columns []models.Column) []models.Column {
	out := make([]models.Column, len(columns))
	copy(out, columns)
	for i := range out {
		cards := make([]models.Card, len(out[i].Cards))
		copy(cards, out[i].Cards)
		out[i].Cards = cards
	}
	return out
}
