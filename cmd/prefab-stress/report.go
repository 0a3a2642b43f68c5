package main

import (
	"io"
	"runtime"
	"text/template"
	"time"
)

type Report struct {
	// Configuration
	Instances     int
	TemplateNodes int
	Mutations     int

	// Results
	Entities        int
	TotalCreated    int
	TotalOrphans    int
	InstantiateTime Stats
	ReconcileTime   Stats
	MemStatsStart   runtime.MemStats
	MemStatsEnd     runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Prefab Stress Test Report

## Test Configuration
- **Instances Placed:** {{.Instances}}
- **Template Nodes:** {{.TemplateNodes}}
- **Template Mutations:** {{.Mutations}}

## Results
- **Live Entities After Placement:** {{.Entities}}
- **Entities Created by Reconcile:** {{.TotalCreated}}
- **Orphans Flagged:** {{.TotalOrphans}}
- **Instantiate Time (per instance):**
  - **Avg:** {{.InstantiateTime.Avg}}
  - **Min:** {{.InstantiateTime.Min}}
  - **Max:** {{.InstantiateTime.Max}}
- **Reconcile Time (per instance):**
  - **Avg:** {{.ReconcileTime.Avg}}
  - **Min:** {{.ReconcileTime.Min}}
  - **Max:** {{.ReconcileTime.Max}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
`

	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
