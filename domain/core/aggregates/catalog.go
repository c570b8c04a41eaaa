package aggregates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wmsadmin/domain/config"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/validators"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/domain/events"
	pkgerrors "wmsadmin/pkg/errors"
)

// Operation names the request bucket an item came from.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

const defaultActor = "admin"

// Batch messages returned to clients.
const (
	MsgLockConflict        = "版本號不符，資料可能已被修改"
	MsgLockConflictItem    = "版本號不符"
	MsgSubParentRequired   = "大分類編碼與中分類編碼為必填欄位"
	MsgConflictingOps      = "同一筆資料不可同時修改與刪除"
	MsgUnknownItemType     = "無法判斷資料層級"
	MsgMajorHasChildren    = "大分類仍有中分類資料，無法刪除"
	MsgMidHasChildren      = "中分類仍有細分類資料，無法刪除"
	MsgMajorChildrenItem   = "仍有子分類資料"
	MsgMidChildrenItem     = "仍有細分類資料"
	msgBatchTooLargeFormat = "單次批次最多 %d 筆"
)

// NotFoundMessage is the message for a missing row at level.
func NotFoundMessage(level valueobjects.Level) string {
	return level.Label() + "不存在"
}

// BatchItem is one create, update or delete as received. Type may be empty,
// in which case the level is inferred from which fields are set.
type BatchItem struct {
	Type string

	MajorCatID int
	MidCatID   int
	ID         int

	MajorCatNo   string
	MajorCatName string
	MidCatCode   string
	SubcatCode   string
	CodeDesc     string
	Value1       *float64
	Value2       *float64
	Remark       string

	LockVer    int
	CreatedBy  string
	ModifiedBy string
}

// Level resolves the item's tier.
func (it BatchItem) Level(op Operation) (valueobjects.Level, bool) {
	if it.Type != "" {
		l, err := valueobjects.ParseLevel(it.Type)
		return l, err == nil
	}
	if op == OpCreate {
		switch {
		case it.SubcatCode != "":
			return valueobjects.LevelSub, true
		case it.MajorCatName != "":
			return valueobjects.LevelMajor, true
		case it.MidCatCode != "":
			return valueobjects.LevelMid, true
		}
		return "", false
	}
	// Mid rows also carry majorCatId and subs carry midCatId, so test the
	// most specific id first.
	switch {
	case it.ID != 0:
		return valueobjects.LevelSub, true
	case it.MidCatID != 0:
		return valueobjects.LevelMid, true
	case it.MajorCatID != 0:
		return valueobjects.LevelMajor, true
	}
	return "", false
}

// TargetID is the surrogate id the item addresses at level.
func (it BatchItem) TargetID(level valueobjects.Level) int {
	switch level {
	case valueobjects.LevelMajor:
		return it.MajorCatID
	case valueobjects.LevelMid:
		return it.MidCatID
	default:
		return it.ID
	}
}

func (it BatchItem) expectedLockVer() int {
	if it.LockVer <= 0 {
		return 1
	}
	return it.LockVer
}

// Batch is the three bucket request.
type Batch struct {
	Creates []BatchItem
	Updates []BatchItem
	Deletes []BatchItem
}

func (b Batch) Len() int { return len(b.Creates) + len(b.Updates) + len(b.Deletes) }

// ItemError is one entry of the response errors array.
type ItemError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// FailedItem points at the request item that failed. Index is the bucket
// position for creates and the surrogate id for updates and deletes.
type FailedItem struct {
	Type  Operation          `json:"type"`
	Level valueobjects.Level `json:"level,omitempty"`
	Index string             `json:"index"`
	Error string             `json:"error"`
}

// BatchRejection is returned when any item fails. Nothing in the batch is
// applied.
type BatchRejection struct {
	Errors      []ItemError
	FailedItems []FailedItem
}

func (r *BatchRejection) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Code+": "+e.Message)
	}
	return fmt.Sprintf("batch rejected: %s", strings.Join(msgs, "; "))
}

func (r *BatchRejection) HasErrors() bool {
	return len(r.Errors) > 0 || len(r.FailedItems) > 0
}

// HasLockConflict reports whether any item lost an optimistic lock check.
func (r *BatchRejection) HasLockConflict() bool {
	for _, e := range r.Errors {
		if e.Code == pkgerrors.CodeOptimisticLockConflict {
			return true
		}
	}
	return false
}

// HasCode reports whether any error carries code.
func (r *BatchRejection) HasCode(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Reject builds a rejection with a single request level error.
func Reject(code, field, message string) *BatchRejection {
	return &BatchRejection{Errors: []ItemError{{Field: field, Message: message, Code: code}}}
}

// AsRejection extracts a BatchRejection from an error chain.
func AsRejection(err error) (*BatchRejection, bool) {
	var r *BatchRejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Catalog is the aggregate root for the code tree. It plans batches against
// one snapshot and collects the events of the planned changes.
type Catalog struct {
	tree      *entities.CodesTree
	rules     *config.CodesRules
	validator *validators.CategoryValidator
	events    []events.DomainEvent
}

// NewCatalog wraps a snapshot. The snapshot is copied.
func NewCatalog(tree *entities.CodesTree, rules *config.CodesRules) (*Catalog, error) {
	if tree == nil {
		return nil, errors.New("tree required")
	}
	if rules == nil {
		rules = config.DefaultCodesRules()
	}
	return &Catalog{
		tree:      tree.Clone(),
		rules:     rules,
		validator: validators.NewCategoryValidator(rules),
		events:    []events.DomainEvent{},
	}, nil
}

// Tree returns a copy of the snapshot.
func (c *Catalog) Tree() *entities.CodesTree {
	return c.tree.Clone()
}

// PlanBatch checks every item of b against the snapshot and returns the
// change set to commit. Any failure returns a *BatchRejection and no change
// set.
func (c *Catalog) PlanBatch(b Batch, actor string, now time.Time) (*ChangeSet, error) {
	if b.Len() > c.rules.MaxBatchItems {
		return nil, Reject(pkgerrors.CodeBatchTooLarge, "", fmt.Sprintf(msgBatchTooLargeFormat, c.rules.MaxBatchItems))
	}

	p := c.newPlanner(actor, now)
	p.indexDeletes(b.Deletes)
	p.findConflicts(b)
	p.planCreates(b.Creates)
	p.planUpdates(b.Updates)
	p.planDeletes(b.Deletes)

	if p.rej.HasErrors() {
		return nil, p.rej
	}
	for _, e := range p.events {
		c.addEvent(e)
	}
	return p.cs, nil
}

// GetUncommittedEvents returns events raised since the last commit
func (c *Catalog) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(c.events))
	copy(out, c.events)
	return out
}

// MarkEventsAsCommitted clears uncommitted events
func (c *Catalog) MarkEventsAsCommitted() {
	c.events = []events.DomainEvent{}
}

func (c *Catalog) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}

type opRef struct {
	op    Operation
	index int
}

type levelID struct {
	level valueobjects.Level
	id    int
}

type planner struct {
	c     *Catalog
	actor string
	now   time.Time
	rej   *BatchRejection
	cs    *ChangeSet

	majorByNo map[string]entities.MajorCategory
	majorByID map[int]entities.MajorCategory
	midByKey  map[entities.MidKey]entities.MidCategory
	midByID   map[int]entities.MidCategory
	subByID   map[int]entities.SubCategory

	majorNos []string
	midCodes map[string][]string
	subCodes map[entities.MidKey][]string

	deleted   map[levelID]bool
	conflicts map[opRef]bool

	nextMajorID int
	nextMidID   int
	nextSubID   int

	events []events.DomainEvent
}

func (c *Catalog) newPlanner(actor string, now time.Time) *planner {
	p := &planner{
		c:         c,
		actor:     actor,
		now:       now,
		rej:       &BatchRejection{},
		cs:        &ChangeSet{Actor: actor, Timestamp: now},
		majorByNo: make(map[string]entities.MajorCategory),
		majorByID: make(map[int]entities.MajorCategory),
		midByKey:  make(map[entities.MidKey]entities.MidCategory),
		midByID:   make(map[int]entities.MidCategory),
		subByID:   make(map[int]entities.SubCategory),
		midCodes:  make(map[string][]string),
		subCodes:  make(map[entities.MidKey][]string),
		deleted:   make(map[levelID]bool),
		conflicts: make(map[opRef]bool),
	}
	for _, m := range c.tree.MajorCategories {
		p.majorByNo[m.MajorCatNo] = m
		p.majorByID[m.MajorCatID] = m
		p.majorNos = append(p.majorNos, m.MajorCatNo)
		p.nextMajorID = max(p.nextMajorID, m.MajorCatID)
	}
	for _, m := range c.tree.MidCategories {
		p.midByKey[entities.MidKey{MajorCatNo: m.MajorCatNo, MidCatCode: m.MidCatCode}] = m
		p.midByID[m.MidCatID] = m
		p.midCodes[m.MajorCatNo] = append(p.midCodes[m.MajorCatNo], m.MidCatCode)
		p.nextMidID = max(p.nextMidID, m.MidCatID)
	}
	for _, s := range c.tree.SubCategories {
		p.subByID[s.ID] = s
		k := s.ParentKey()
		p.subCodes[k] = append(p.subCodes[k], s.SubcatCode)
		p.nextSubID = max(p.nextSubID, s.ID)
	}
	return p
}

func (p *planner) actorFor(itemActor string) string {
	switch {
	case p.actor != "":
		return p.actor
	case itemActor != "":
		return itemActor
	default:
		return defaultActor
	}
}

func (p *planner) fail(op Operation, level valueobjects.Level, index string, itemErr string, errs ...ItemError) {
	p.rej.Errors = append(p.rej.Errors, errs...)
	p.rej.FailedItems = append(p.rej.FailedItems, FailedItem{Type: op, Level: level, Index: index, Error: itemErr})
}

func (p *planner) failOne(op Operation, level valueobjects.Level, index, field, code, message, itemErr string) {
	if itemErr == "" {
		itemErr = message
	}
	p.fail(op, level, index, itemErr, ItemError{Field: field, Message: message, Code: code})
}

// failValidation reports every rule violation of one item.
func (p *planner) failValidation(op Operation, level valueobjects.Level, index string, res validators.ValidationResult) {
	errs := make([]ItemError, 0, len(res.Errors))
	for _, fe := range res.Errors {
		errs = append(errs, ItemError{Field: fe.Field, Message: fe.Message, Code: fe.Code})
	}
	p.fail(op, level, index, res.Errors[0].Message, errs...)
}

func (p *planner) indexDeletes(items []BatchItem) {
	for _, it := range items {
		level, ok := it.Level(OpDelete)
		if !ok {
			continue
		}
		p.deleted[levelID{level, it.TargetID(level)}] = true
	}
}

// findConflicts flags every update or delete that addresses a row already
// addressed by an earlier update or delete.
func (p *planner) findConflicts(b Batch) {
	seen := make(map[levelID]bool)
	mark := func(op Operation, items []BatchItem) {
		for i, it := range items {
			level, ok := it.Level(op)
			if !ok {
				continue
			}
			k := levelID{level, it.TargetID(level)}
			if seen[k] {
				p.conflicts[opRef{op, i}] = true
			}
			seen[k] = true
		}
	}
	mark(OpUpdate, b.Updates)
	mark(OpDelete, b.Deletes)
}

type indexedItem struct {
	index int
	item  BatchItem
}

func (p *planner) planCreates(items []BatchItem) {
	byLevel := make(map[valueobjects.Level][]indexedItem)
	for i, it := range items {
		level, ok := it.Level(OpCreate)
		if !ok {
			p.failOne(OpCreate, "", strconv.Itoa(i), "type", pkgerrors.CodeInvalidItem, MsgUnknownItemType, "")
			continue
		}
		byLevel[level] = append(byLevel[level], indexedItem{i, it})
	}
	for _, ii := range byLevel[valueobjects.LevelMajor] {
		p.createMajor(ii.index, ii.item)
	}
	for _, ii := range byLevel[valueobjects.LevelMid] {
		p.createMid(ii.index, ii.item)
	}
	for _, ii := range byLevel[valueobjects.LevelSub] {
		p.createSub(ii.index, ii.item)
	}
}

func (p *planner) createMajor(i int, it BatchItem) {
	idx := strconv.Itoa(i)
	res := p.c.validator.ValidateMajor(it.MajorCatNo, it.MajorCatName, p.majorNos)
	if !res.IsValid {
		p.failValidation(OpCreate, valueobjects.LevelMajor, idx, res)
		return
	}

	p.nextMajorID++
	row := entities.MajorCategory{
		MajorCatID:   p.nextMajorID,
		MajorCatNo:   it.MajorCatNo,
		MajorCatName: it.MajorCatName,
		LockVer:      1,
	}
	row.Stamp(p.actorFor(it.CreatedBy), p.now)

	p.majorByNo[row.MajorCatNo] = row
	p.majorNos = append(p.majorNos, row.MajorCatNo)
	p.cs.MajorCreates = append(p.cs.MajorCreates, row)
	p.events = append(p.events, events.NewCategoryCreated(valueobjects.LevelMajor, row.MajorCatID, row.MajorCatNo, row.CreatedBy, p.now))
}

func (p *planner) createMid(i int, it BatchItem) {
	idx := strconv.Itoa(i)
	res := p.c.validator.ValidateMid(it.MidCatCode, it.CodeDesc, it.MajorCatNo, p.midCodes[it.MajorCatNo]).
		Merge(p.c.validator.ValidateRemark(it.Remark))
	if !res.IsValid {
		p.failValidation(OpCreate, valueobjects.LevelMid, idx, res)
		return
	}

	parent, ok := p.majorByNo[it.MajorCatNo]
	if !ok || p.deleted[levelID{valueobjects.LevelMajor, parent.MajorCatID}] {
		p.failOne(OpCreate, valueobjects.LevelMid, idx, "majorCatNo", pkgerrors.CodeNotFound, NotFoundMessage(valueobjects.LevelMajor), "")
		return
	}

	p.nextMidID++
	row := entities.MidCategory{
		MidCatID:   p.nextMidID,
		MajorCatID: parent.MajorCatID,
		MajorCatNo: parent.MajorCatNo,
		MidCatCode: it.MidCatCode,
		CodeDesc:   it.CodeDesc,
		Value1:     it.Value1,
		Value2:     it.Value2,
		Remark:     it.Remark,
		LockVer:    1,
	}
	row.Stamp(p.actorFor(it.CreatedBy), p.now)

	k := entities.MidKey{MajorCatNo: row.MajorCatNo, MidCatCode: row.MidCatCode}
	p.midByKey[k] = row
	p.midCodes[row.MajorCatNo] = append(p.midCodes[row.MajorCatNo], row.MidCatCode)
	p.cs.MidCreates = append(p.cs.MidCreates, row)
	p.events = append(p.events, events.NewCategoryCreated(valueobjects.LevelMid, row.MidCatID, midKeyString(k), row.CreatedBy, p.now))
}

func (p *planner) createSub(i int, it BatchItem) {
	idx := strconv.Itoa(i)
	if strings.TrimSpace(it.MajorCatNo) == "" || strings.TrimSpace(it.MidCatCode) == "" {
		p.failOne(OpCreate, valueobjects.LevelSub, idx, "majorCatNo", pkgerrors.CodeRequired, MsgSubParentRequired, "")
		return
	}
	k := entities.MidKey{MajorCatNo: it.MajorCatNo, MidCatCode: it.MidCatCode}
	res := p.c.validator.ValidateSub(it.SubcatCode, it.CodeDesc, it.MajorCatNo, it.MidCatCode, p.subCodes[k]).
		Merge(p.c.validator.ValidateRemark(it.Remark))
	if !res.IsValid {
		p.failValidation(OpCreate, valueobjects.LevelSub, idx, res)
		return
	}

	parent, ok := p.midByKey[k]
	if !ok || p.deleted[levelID{valueobjects.LevelMid, parent.MidCatID}] {
		p.failOne(OpCreate, valueobjects.LevelSub, idx, "midCatCode", pkgerrors.CodeNotFound, NotFoundMessage(valueobjects.LevelMid), "")
		return
	}

	p.nextSubID++
	row := entities.SubCategory{
		ID:         p.nextSubID,
		MidCatID:   parent.MidCatID,
		MajorCatNo: parent.MajorCatNo,
		MidCatCode: parent.MidCatCode,
		SubcatCode: it.SubcatCode,
		CodeDesc:   it.CodeDesc,
		Remark:     it.Remark,
		LockVer:    1,
	}
	row.Stamp(p.actorFor(it.CreatedBy), p.now)

	p.subCodes[k] = append(p.subCodes[k], row.SubcatCode)
	p.cs.SubCreates = append(p.cs.SubCreates, row)
	p.events = append(p.events, events.NewCategoryCreated(valueobjects.LevelSub, row.ID, subKeyString(row), row.CreatedBy, p.now))
}

// target resolves the level and stored row id of an update or delete, or
// records why it cannot.
func (p *planner) target(op Operation, i int, it BatchItem) (valueobjects.Level, bool) {
	level, ok := it.Level(op)
	if !ok {
		p.failOne(op, "", strconv.Itoa(i), "type", pkgerrors.CodeInvalidItem, MsgUnknownItemType, "")
		return "", false
	}
	id := it.TargetID(level)
	if p.conflicts[opRef{op, i}] {
		p.failOne(op, level, strconv.Itoa(id), level.IDField(), pkgerrors.CodeConflictingOperations, MsgConflictingOps, "")
		return "", false
	}
	return level, true
}

func (p *planner) checkLock(op Operation, level valueobjects.Level, id, stored int, it BatchItem) bool {
	if stored == it.expectedLockVer() {
		return true
	}
	p.failOne(op, level, strconv.Itoa(id), "lockVer", pkgerrors.CodeOptimisticLockConflict, MsgLockConflict, MsgLockConflictItem)
	return false
}

func (p *planner) notFound(op Operation, level valueobjects.Level, id int) {
	p.failOne(op, level, strconv.Itoa(id), level.IDField(), pkgerrors.CodeNotFound, NotFoundMessage(level), "")
}

func without(codes []string, self string) []string {
	out := make([]string, 0, len(codes))
	skipped := false
	for _, c := range codes {
		if c == self && !skipped {
			skipped = true
			continue
		}
		out = append(out, c)
	}
	return out
}

func (p *planner) planUpdates(items []BatchItem) {
	for i, it := range items {
		level, ok := p.target(OpUpdate, i, it)
		if !ok {
			continue
		}
		switch level {
		case valueobjects.LevelMajor:
			p.updateMajor(it)
		case valueobjects.LevelMid:
			p.updateMid(it)
		case valueobjects.LevelSub:
			p.updateSub(it)
		}
	}
}

func (p *planner) updateMajor(it BatchItem) {
	level := valueobjects.LevelMajor
	stored, ok := p.majorByID[it.MajorCatID]
	if !ok {
		p.notFound(OpUpdate, level, it.MajorCatID)
		return
	}
	if !p.checkLock(OpUpdate, level, stored.MajorCatID, stored.LockVer, it) {
		return
	}
	res := p.c.validator.ValidateMajor(stored.MajorCatNo, it.MajorCatName, without(p.majorNos, stored.MajorCatNo))
	if !res.IsValid {
		p.failValidation(OpUpdate, level, strconv.Itoa(stored.MajorCatID), res)
		return
	}

	row := stored
	row.MajorCatName = it.MajorCatName
	row.LockVer = stored.LockVer + 1
	row.Touch(p.actorFor(it.ModifiedBy), p.now)

	p.cs.MajorUpdates = append(p.cs.MajorUpdates, Change[entities.MajorCategory]{Row: row, ExpectedLockVer: stored.LockVer})
	p.events = append(p.events, events.NewCategoryUpdated(level, row.MajorCatID, row.MajorCatNo, row.LockVer, row.ModifiedBy, p.now))
}

func (p *planner) updateMid(it BatchItem) {
	level := valueobjects.LevelMid
	stored, ok := p.midByID[it.MidCatID]
	if !ok {
		p.notFound(OpUpdate, level, it.MidCatID)
		return
	}
	if !p.checkLock(OpUpdate, level, stored.MidCatID, stored.LockVer, it) {
		return
	}
	res := p.c.validator.ValidateMid(stored.MidCatCode, it.CodeDesc, stored.MajorCatNo,
		without(p.midCodes[stored.MajorCatNo], stored.MidCatCode)).
		Merge(p.c.validator.ValidateRemark(it.Remark))
	if !res.IsValid {
		p.failValidation(OpUpdate, level, strconv.Itoa(stored.MidCatID), res)
		return
	}

	row := stored
	row.CodeDesc = it.CodeDesc
	row.Value1 = it.Value1
	row.Value2 = it.Value2
	row.Remark = it.Remark
	row.LockVer = stored.LockVer + 1
	row.Touch(p.actorFor(it.ModifiedBy), p.now)

	p.cs.MidUpdates = append(p.cs.MidUpdates, Change[entities.MidCategory]{Row: row, ExpectedLockVer: stored.LockVer})
	p.events = append(p.events, events.NewCategoryUpdated(level, row.MidCatID,
		midKeyString(entities.MidKey{MajorCatNo: row.MajorCatNo, MidCatCode: row.MidCatCode}), row.LockVer, row.ModifiedBy, p.now))
}

func (p *planner) updateSub(it BatchItem) {
	level := valueobjects.LevelSub
	stored, ok := p.subByID[it.ID]
	if !ok {
		p.notFound(OpUpdate, level, it.ID)
		return
	}
	if !p.checkLock(OpUpdate, level, stored.ID, stored.LockVer, it) {
		return
	}
	res := p.c.validator.ValidateSub(stored.SubcatCode, it.CodeDesc, stored.MajorCatNo, stored.MidCatCode,
		without(p.subCodes[stored.ParentKey()], stored.SubcatCode)).
		Merge(p.c.validator.ValidateRemark(it.Remark))
	if !res.IsValid {
		p.failValidation(OpUpdate, level, strconv.Itoa(stored.ID), res)
		return
	}

	row := stored
	row.CodeDesc = it.CodeDesc
	row.Remark = it.Remark
	row.LockVer = stored.LockVer + 1
	row.Touch(p.actorFor(it.ModifiedBy), p.now)

	p.cs.SubUpdates = append(p.cs.SubUpdates, Change[entities.SubCategory]{Row: row, ExpectedLockVer: stored.LockVer})
	p.events = append(p.events, events.NewCategoryUpdated(level, row.ID, subKeyString(row), row.LockVer, row.ModifiedBy, p.now))
}

func (p *planner) planDeletes(items []BatchItem) {
	for i, it := range items {
		level, ok := p.target(OpDelete, i, it)
		if !ok {
			continue
		}
		switch level {
		case valueobjects.LevelMajor:
			p.deleteMajor(it)
		case valueobjects.LevelMid:
			p.deleteMid(it)
		case valueobjects.LevelSub:
			p.deleteSub(it)
		}
	}
}

func (p *planner) deleteMajor(it BatchItem) {
	level := valueobjects.LevelMajor
	stored, ok := p.majorByID[it.MajorCatID]
	if !ok {
		p.notFound(OpDelete, level, it.MajorCatID)
		return
	}
	if !p.checkLock(OpDelete, level, stored.MajorCatID, stored.LockVer, it) {
		return
	}
	for _, m := range p.c.tree.MidCategories {
		if m.MajorCatNo == stored.MajorCatNo && !p.deleted[levelID{valueobjects.LevelMid, m.MidCatID}] {
			p.failOne(OpDelete, level, strconv.Itoa(stored.MajorCatID), level.IDField(),
				pkgerrors.CodeHasChildren, MsgMajorHasChildren, MsgMajorChildrenItem)
			return
		}
	}

	p.cs.MajorDeletes = append(p.cs.MajorDeletes, Change[entities.MajorCategory]{Row: stored, ExpectedLockVer: stored.LockVer})
	p.events = append(p.events, events.NewCategoryDeleted(level, stored.MajorCatID, stored.MajorCatNo, p.actorFor(it.ModifiedBy), p.now))
}

func (p *planner) deleteMid(it BatchItem) {
	level := valueobjects.LevelMid
	stored, ok := p.midByID[it.MidCatID]
	if !ok {
		p.notFound(OpDelete, level, it.MidCatID)
		return
	}
	if !p.checkLock(OpDelete, level, stored.MidCatID, stored.LockVer, it) {
		return
	}
	for _, s := range p.c.tree.SubCategories {
		if s.MajorCatNo == stored.MajorCatNo && s.MidCatCode == stored.MidCatCode &&
			!p.deleted[levelID{valueobjects.LevelSub, s.ID}] {
			p.failOne(OpDelete, level, strconv.Itoa(stored.MidCatID), level.IDField(),
				pkgerrors.CodeHasChildren, MsgMidHasChildren, MsgMidChildrenItem)
			return
		}
	}

	p.cs.MidDeletes = append(p.cs.MidDeletes, Change[entities.MidCategory]{Row: stored, ExpectedLockVer: stored.LockVer})
	p.events = append(p.events, events.NewCategoryDeleted(level, stored.MidCatID,
		midKeyString(entities.MidKey{MajorCatNo: stored.MajorCatNo, MidCatCode: stored.MidCatCode}), p.actorFor(it.ModifiedBy), p.now))
}

func (p *planner) deleteSub(it BatchItem) {
	level := valueobjects.LevelSub
	stored, ok := p.subByID[it.ID]
	if !ok {
		p.notFound(OpDelete, level, it.ID)
		return
	}
	if !p.checkLock(OpDelete, level, stored.ID, stored.LockVer, it) {
		return
	}
	p.cs.SubDeletes = append(p.cs.SubDeletes, Change[entities.SubCategory]{Row: stored, ExpectedLockVer: stored.LockVer})
	p.events = append(p.events, events.NewCategoryDeleted(level, stored.ID, subKeyString(stored), p.actorFor(it.ModifiedBy), p.now))
}

func midKeyString(k entities.MidKey) string {
	return k.MajorCatNo + "-" + k.MidCatCode
}

func subKeyString(s entities.SubCategory) string {
	return s.MajorCatNo + "-" + s.MidCatCode + "-" + s.SubcatCode
}
