package model

import (
	"context"
	"testing"
)

func TestStateErrorAccumulatesWithoutAborting(t *testing.T) {
	s := NewState(context.Background(), nil, &TestItem{}, nil)
	s.Error("first")
	s.Error("second")
	if !s.HasError() {
		t.Fatal("expected HasError to be true after Error")
	}
	if got := s.Errors(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("Errors() = %v", got)
	}
}

func TestStateFatalPanicsWithFatalAbort(t *testing.T) {
	s := NewState(context.Background(), nil, &TestItem{}, nil)
	defer func() {
		r := recover()
		if _, ok := r.(FatalAbort); !ok {
			t.Fatalf("recovered %v (%T), want FatalAbort", r, r)
		}
		if !s.HasError() {
			t.Fatal("expected Fatal to record an error before panicking")
		}
	}()
	s.Fatal("boom")
}

func TestStateSkipPanicsWithSkipAbort(t *testing.T) {
	s := NewState(context.Background(), nil, &TestItem{}, nil)
	defer func() {
		r := recover()
		sa, ok := r.(SkipAbort)
		if !ok || sa.Reason != "not supported here" {
			t.Fatalf("recovered %v (%T), want SkipAbort{not supported here}", r, r)
		}
	}()
	s.Skip("not supported here")
}

func TestStateReportComparisonIsRetrievable(t *testing.T) {
	s := NewState(context.Background(), nil, &TestItem{}, nil)
	if s.Comparison() != nil {
		t.Fatal("expected no comparison before ReportComparison is called")
	}
	s.ReportComparison(1, 2)
	cmp := s.Comparison()
	if cmp == nil || cmp.Received != 1 || cmp.Expected != 2 {
		t.Fatalf("Comparison() = %+v", cmp)
	}
}

func TestTestItemMarkerLookups(t *testing.T) {
	item := &TestItem{
		Markers: []Marker{
			{Kind: "skip", Reason: "flaky", Condition: func() bool { return false }},
			{Kind: "xfail", ExpectedErr: "ValueError"},
		},
	}
	if _, ok := item.SkipMarker(); ok {
		t.Fatal("expected the conditional skip marker to be inactive")
	}
	xf, ok := item.XFailMarker()
	if !ok || xf.ExpectedErr != "ValueError" {
		t.Fatalf("XFailMarker() = %+v, %v", xf, ok)
	}
}

func TestTestItemParamValue(t *testing.T) {
	item := &TestItem{Params: []Param{{Name: "n", Value: 3}}}
	v, ok := item.ParamValue("n")
	if !ok || v != 3 {
		t.Fatalf("ParamValue(n) = %v, %v", v, ok)
	}
	if _, ok := item.ParamValue("missing"); ok {
		t.Fatal("expected ParamValue to report false for an unknown name")
	}
}

func TestTestItemScopeKeys(t *testing.T) {
	item := &TestItem{File: "pkg/mod_test.go", Class: "Suite"}
	if got := item.ClassKey(); got != "pkg/mod_test.go::Suite" {
		t.Fatalf("ClassKey() = %q", got)
	}
	if got := item.ModuleKey(); got != "pkg/mod_test.go" {
		t.Fatalf("ModuleKey() = %q", got)
	}
}
