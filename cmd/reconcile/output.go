package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
	"github.com/bytedance/sonic"
)

func printJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func parseDay(flag, raw string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	return day, nil
}

// parseShards reads "2012:boys" pairs. The gender accepts the same words
// and letters as division hints.
func parseShards(raw []string) ([]team.Shard, error) {
	out := make([]team.Shard, 0, len(raw))
	for _, item := range raw {
		year, gender, ok := strings.Cut(strings.TrimSpace(item), ":")
		if !ok {
			return nil, fmt.Errorf("shard %q must look like YEAR:GENDER", item)
		}
		birthYear, err := strconv.Atoi(strings.TrimSpace(year))
		if err != nil || birthYear < 1990 || birthYear > 2100 {
			return nil, fmt.Errorf("shard %q has an invalid birth year", item)
		}
		g := teamname.ParseGender(gender)
		if g == "" {
			return nil, fmt.Errorf("shard %q has an unknown gender", item)
		}
		out = append(out, team.Shard{BirthYear: birthYear, Gender: g})
	}
	return out, nil
}
