package model

import (
	"strings"
	"testing"
)

func TestNormalizeStaticDefaults(t *testing.T) {
	s := Settings{}
	s.Normalize()
	if s.FPS != StaticFPS || s.MaxFrames != StaticMaxFrames || s.Iterations != StaticIterations {
		t.Fatalf("static defaults: %+v", s)
	}
}

func TestNormalizeMotionDefaults(t *testing.T) {
	s := Settings{MotionEnabled: true}
	s.Normalize()
	if s.FPS != MotionFPS || s.MaxFrames != MotionMaxFrames || s.Iterations != MotionIterations {
		t.Fatalf("motion defaults: %+v", s)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	s := Settings{FPS: 5, MaxFrames: 100, Iterations: 7000, MotionEnabled: true}
	s.Normalize()
	if s.FPS != 5 || s.MaxFrames != 100 || s.Iterations != 7000 {
		t.Fatalf("explicit values changed: %+v", s)
	}
}

func TestRequestValidate(t *testing.T) {
	valid := Request{
		ProductionID: "prod-1",
		SourceVideos: []SourceVideo{{URL: "https://example.test/a.mp4", Filename: "a.mp4"}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "blank production id",
			req:  Request{ProductionID: "  ", SourceVideos: valid.SourceVideos},
			want: "productionId",
		},
		{
			name: "no videos",
			req:  Request{ProductionID: "prod-1"},
			want: "source video",
		},
		{
			name: "missing url",
			req: Request{
				ProductionID: "prod-1",
				SourceVideos: []SourceVideo{{Filename: "a.mp4"}},
			},
			want: "sourceVideos[0]: url",
		},
		{
			name: "missing filename",
			req: Request{
				ProductionID: "prod-1",
				SourceVideos: []SourceVideo{{URL: "https://example.test/a.mp4"}},
			},
			want: "sourceVideos[0]: filename",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}
