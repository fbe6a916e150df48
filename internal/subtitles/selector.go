package subtitles

// SelectBest picks the single cleaned subtitle the generators consume.
// Priority: manual in the video's language, automatic in the video's
// language, any manual, any automatic. Within a bucket, languages follow
// langPriority and extensions follow extPriority. videoLang defaults to "en".
func SelectBest(entries []CleanEntry, videoLang string, langPriority, extPriority []string) (CleanEntry, error) {
	if videoLang == "" {
		videoLang = "en"
	}

	type bucket struct {
		kind Kind
		lang string // empty means any language
	}
	buckets := []bucket{
		{KindManual, videoLang},
		{KindAutomatic, videoLang},
		{KindManual, ""},
		{KindAutomatic, ""},
	}

	for _, b := range buckets {
		langs := []string{b.lang}
		if b.lang == "" {
			langs = orderedLangs(entries, langPriority)
		}
		for _, lang := range langs {
			for _, ext := range extPriority {
				for _, e := range entries {
					if e.Kind == b.kind && e.Lang == lang && e.Ext == ext && e.Text != "" {
						return e, nil
					}
				}
			}
		}
	}
	return CleanEntry{}, ErrNoSubtitles
}

// orderedLangs lists the languages present in the entries, preferred
// languages first, remaining ones in encounter order.
func orderedLangs(entries []CleanEntry, langPriority []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, lang := range langPriority {
		for _, e := range entries {
			if e.Lang == lang && !seen[lang] {
				seen[lang] = true
				out = append(out, lang)
			}
		}
	}
	for _, e := range entries {
		if !seen[e.Lang] {
			seen[e.Lang] = true
			out = append(out, e.Lang)
		}
	}
	return out
}
