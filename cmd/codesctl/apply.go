package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"wmsadmin/pkg/editsession"

	"gopkg.in/yaml.v3"
)

// plan is the edits file read by apply.
//
//	edits:
//	  - op: add
//	    major: "Z01"
//	    set: {name: 新大分類}
//	  - op: update
//	    major: "001"
//	    mid: "002"
//	    set: {desc: 盤點, value1: 1.5}
//	  - op: delete
//	    major: "001"
//	    mid: "002"
//	    sub: "003"
//
// The deepest key given picks the level.
type plan struct {
	Edits []edit `yaml:"edits"`
}

type edit struct {
	Op    string `yaml:"op"`
	Major string `yaml:"major"`
	Mid   string `yaml:"mid"`
	Sub   string `yaml:"sub"`
	Set   fields `yaml:"set"`
}

type fields struct {
	Name   *string  `yaml:"name"`
	Desc   *string  `yaml:"desc"`
	Remark *string  `yaml:"remark"`
	Value1 *float64 `yaml:"value1"`
	Value2 *float64 `yaml:"value2"`
}

func (e edit) level() string {
	switch {
	case e.Sub != "":
		return "sub"
	case e.Mid != "":
		return "mid"
	default:
		return "major"
	}
}

func (e edit) String() string {
	keys := []string{e.Major}
	if e.Mid != "" {
		keys = append(keys, e.Mid)
	}
	if e.Sub != "" {
		keys = append(keys, e.Sub)
	}
	return fmt.Sprintf("%s %s %s", e.Op, e.level(), strings.Join(keys, "/"))
}

func parsePlan(r io.Reader) (*plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var p plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse edits: %w", err)
	}
	if len(p.Edits) == 0 {
		return nil, errors.New("edits file has no edits")
	}
	for i, e := range p.Edits {
		switch e.Op {
		case "add", "update", "delete":
		default:
			return nil, fmt.Errorf("edits[%d]: unknown op %q", i, e.Op)
		}
		if e.Major == "" {
			return nil, fmt.Errorf("edits[%d]: major is required", i)
		}
		if e.Sub != "" && e.Mid == "" {
			return nil, fmt.Errorf("edits[%d]: sub needs mid", i)
		}
	}
	return &p, nil
}

// RejectedError reports a batch the server or local validation refused.
type RejectedError struct {
	Edit   string
	Result *editsession.SaveResult
}

func (e *RejectedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch rejected at %q", e.Edit)
	if e.Result.Conflict {
		b.WriteString(" (data changed by someone else, reload and retry)")
	}
	keys := make([]string, 0, len(e.Result.Errors))
	for k := range e.Result.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, strings.Join(e.Result.Errors[k], "; "))
	}
	return b.String()
}

// applier replays a plan on a session. The session allows one unsaved new
// row and prompts before a selection change drops edits, so pending work is
// saved whenever either would happen.
type applier struct {
	s       *editsession.Session
	onSaved func(*editsession.SaveResult)
	current string
}

func newApplier(s *editsession.Session, onSaved func(*editsession.SaveResult)) *applier {
	return &applier{s: s, onSaved: onSaved}
}

func (a *applier) apply(ctx context.Context, p *plan) error {
	for _, e := range p.Edits {
		a.current = e.String()
		if err := a.one(ctx, e); err != nil {
			return fmt.Errorf("%s: %w", a.current, err)
		}
	}
	return a.flush(ctx)
}

func (a *applier) flush(ctx context.Context) error {
	if !a.s.HasUnsavedChanges() {
		return nil
	}
	res, err := a.s.Save(ctx)
	if err != nil {
		return err
	}
	if !res.Saved {
		return &RejectedError{Edit: a.current, Result: res}
	}
	if a.onSaved != nil {
		a.onSaved(res)
	}
	return nil
}

func (a *applier) one(ctx context.Context, e edit) error {
	if e.Op == "add" {
		if a.s.HasPendingCreate() {
			if err := a.flush(ctx); err != nil {
				return err
			}
		}
		return a.add(ctx, e)
	}

	var err error
	switch e.level() {
	case "major":
		i := findMajor(a.s.Majors(), e.Major)
		if i < 0 {
			return editsession.ErrRowNotFound
		}
		if e.Op == "delete" {
			return a.s.DeleteMajor(i)
		}
		err = setMajor(a.s, i, e.Set)
	case "mid":
		i := findMid(a.s.Mids(), e.Major, e.Mid)
		if i < 0 {
			return editsession.ErrRowNotFound
		}
		if e.Op == "delete" {
			return a.s.DeleteMid(i)
		}
		err = setMid(a.s, i, e.Set)
	case "sub":
		i := findSub(a.s.Subs(), e.Major, e.Mid, e.Sub)
		if i < 0 {
			return editsession.ErrRowNotFound
		}
		if e.Op == "delete" {
			return a.s.DeleteSub(i)
		}
		err = setSub(a.s, i, e.Set)
	}
	return err
}

func (a *applier) add(ctx context.Context, e edit) error {
	switch e.level() {
	case "major":
		i, err := a.s.AddMajor()
		if err != nil {
			return err
		}
		if err := a.s.UpdateMajor(i, editsession.MajorCatNo(e.Major)); err != nil {
			return err
		}
		return setMajor(a.s, i, e.Set)
	case "mid":
		if err := a.selectMajor(ctx, e.Major); err != nil {
			return err
		}
		i, err := a.s.AddMid()
		if err != nil {
			return err
		}
		if err := a.s.UpdateMid(i, editsession.MidCatCode(e.Mid)); err != nil {
			return err
		}
		return setMid(a.s, i, e.Set)
	default:
		if err := a.selectMajor(ctx, e.Major); err != nil {
			return err
		}
		if err := a.selectMid(ctx, e.Major, e.Mid); err != nil {
			return err
		}
		i, err := a.s.AddSub()
		if err != nil {
			return err
		}
		if err := a.s.UpdateSub(i, editsession.SubcatCode(e.Sub)); err != nil {
			return err
		}
		return setSub(a.s, i, e.Set)
	}
}

func (a *applier) selectMajor(ctx context.Context, no string) error {
	if cur := a.s.Selection().Major; cur != nil && cur.Row.MajorCatNo == no && cur.Row.Marker != editsession.MarkerPendingCreate {
		return nil
	}
	if err := a.flush(ctx); err != nil {
		return err
	}
	i := findMajor(a.s.Majors(), no)
	if i < 0 {
		return editsession.ErrRowNotFound
	}
	return selected(a.s.SelectMajor(ctx, i))
}

func (a *applier) selectMid(ctx context.Context, majorNo, code string) error {
	if cur := a.s.Selection().Mid; cur != nil && cur.Row.MidCatCode == code && cur.Row.Marker != editsession.MarkerPendingCreate {
		return nil
	}
	if err := a.flush(ctx); err != nil {
		return err
	}
	i := findMid(a.s.Mids(), majorNo, code)
	if i < 0 {
		return editsession.ErrRowNotFound
	}
	return selected(a.s.SelectMid(ctx, i))
}

func selected(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("selection refused with unsaved changes")
	}
	return nil
}

func findMajor(rows []editsession.MajorRow, no string) int {
	for i, r := range rows {
		if r.MajorCatNo == no && r.Marker != editsession.MarkerPendingDelete {
			return i
		}
	}
	return -1
}

func findMid(rows []editsession.MidRow, majorNo, code string) int {
	for i, r := range rows {
		if r.MajorCatNo == majorNo && r.MidCatCode == code && r.Marker != editsession.MarkerPendingDelete {
			return i
		}
	}
	return -1
}

func findSub(rows []editsession.SubRow, majorNo, midCode, code string) int {
	for i, r := range rows {
		if r.MajorCatNo == majorNo && r.MidCatCode == midCode && r.SubcatCode == code && r.Marker != editsession.MarkerPendingDelete {
			return i
		}
	}
	return -1
}

func setMajor(s *editsession.Session, i int, f fields) error {
	if f.Name != nil {
		return s.UpdateMajor(i, editsession.MajorCatName(*f.Name))
	}
	return nil
}

func setMid(s *editsession.Session, i int, f fields) error {
	var updates []editsession.MidField
	if f.Desc != nil {
		updates = append(updates, editsession.MidCodeDesc(*f.Desc))
	}
	if f.Remark != nil {
		updates = append(updates, editsession.MidRemark(*f.Remark))
	}
	if f.Value1 != nil {
		updates = append(updates, editsession.MidValue1{V: f.Value1})
	}
	if f.Value2 != nil {
		updates = append(updates, editsession.MidValue2{V: f.Value2})
	}
	for _, u := range updates {
		if err := s.UpdateMid(i, u); err != nil {
			return err
		}
	}
	return nil
}

func setSub(s *editsession.Session, i int, f fields) error {
	var updates []editsession.SubField
	if f.Desc != nil {
		updates = append(updates, editsession.SubCodeDesc(*f.Desc))
	}
	if f.Remark != nil {
		updates = append(updates, editsession.SubRemark(*f.Remark))
	}
	for _, u := range updates {
		if err := s.UpdateSub(i, u); err != nil {
			return err
		}
	}
	return nil
}
