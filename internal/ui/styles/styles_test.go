// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_PaletteFollowsMode(t *testing.T) {
	light := NewTheme(Light)
	dark := NewTheme(Dark)

	if light.Palette != LightPalette {
		t.Error("light theme should use LightPalette")
	}
	if dark.Palette != DarkPalette {
		t.Error("dark theme should use DarkPalette")
	}
	if light.Palette.Surface == dark.Palette.Surface {
		t.Error("light and dark surfaces should differ")
	}
	if dark.Mode.String() != "dark" || light.Mode.String() != "light" {
		t.Errorf("Mode strings = %q, %q", light.Mode, dark.Mode)
	}
}

func TestTheme_RenderIndicators(t *testing.T) {
	theme := NewTheme(Light)

	tests := []struct {
		name   string
		render func(string) string
		shape  string
	}{
		{"success", theme.RenderSuccess, StatusIndicators.Success},
		{"error", theme.RenderError, StatusIndicators.Error},
		{"warning", theme.RenderWarning, StatusIndicators.Warning},
		{"info", theme.RenderInfo, StatusIndicators.Info},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.render("done")
			if !strings.Contains(out, tc.shape) || !strings.Contains(out, "done") {
				t.Errorf("render = %q, want shape %q and message", out, tc.shape)
			}
		})
	}
}

func TestStatusIndicatorsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []string{
		StatusIndicators.Success, StatusIndicators.Error, StatusIndicators.Warning,
		StatusIndicators.Info, StatusIndicators.Pending, StatusIndicators.Active,
	} {
		if seen[s] {
			t.Errorf("duplicate indicator %q", s)
		}
		seen[s] = true
	}
}

func TestThemeGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}
	theme := NewTheme(Dark)
	for _, tc := range tests {
		theme.SetSize(tc.width, 40)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("GetLayoutMode(width=%d) = %v, want %v", tc.width, got, tc.want)
		}
	}
}

func TestSpinnerFrames(t *testing.T) {
	if len(Spinner.Frames) == 0 || Spinner.FPS <= 0 {
		t.Fatalf("spinner misconfigured: %+v", Spinner)
	}
	for _, f := range Spinner.Frames {
		for _, r := range f {
			if r > 127 {
				t.Errorf("frame %q is not ASCII", f)
			}
		}
	}
}
