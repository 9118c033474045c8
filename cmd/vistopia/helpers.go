package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rizkirmdhn/vistopia/internal/archiver"
)

func parseShowID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid show id %q", arg)
	}
	return id, nil
}

// parseEpisodeSet reads selections like "1,3,5-8". An empty string selects everything.
func parseEpisodeSet(selection string) (archiver.EpisodeFilter, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return nil, nil
	}

	filter := archiver.EpisodeFilter{}
	for _, part := range strings.Split(selection, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, errStart := strconv.Atoi(strings.TrimSpace(lo))
			end, errEnd := strconv.Atoi(strings.TrimSpace(hi))
			if errStart != nil || errEnd != nil || start <= 0 || end < start {
				return nil, fmt.Errorf("invalid episode range %q", part)
			}
			for n := start; n <= end; n++ {
				filter[n] = struct{}{}
			}
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid episode number %q", part)
		}
		filter[n] = struct{}{}
	}

	if len(filter) == 0 {
		return nil, errors.New("no episodes selected")
	}
	return filter, nil
}
