package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"metascraper/internal/cache"
	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/services/llm"
	"metascraper/internal/textutil"
)

const translateSystemPrompt = `You are a professional film and television translator.
Translate the user's text into Simplified Chinese.
For titles, use the official Chinese release title when one exists.
Answer with the translated text only, without quotes, notes, or explanation.`

const tagSystemPrompt = `You translate film and television keywords into Simplified Chinese.
The user sends a JSON array of English keywords. Answer with a JSON object of the form
{"tags": [...]} holding exactly one translation per keyword, in the same order.`

const genreSystemPrompt = `You translate film and television genre names into the Simplified Chinese
names used by Chinese film databases, such as 剧情, 喜剧 or 科幻. The user sends a JSON array
of genres. Answer with a JSON object of the form {"genres": [...]} holding exactly one
translation per genre, in the same order.`

const nameSystemPrompt = `You give the Simplified Chinese rendering of actors' names as used by
Chinese film databases, transliterating when no common rendering exists. The user sends a
JSON array of names. Answer with a JSON object of the form {"names": [...]} holding exactly
one name per entry, in the same order.`

// translationTarget is where filled values go.
const translationTarget = media.LocaleZhCN

// textField is one record field the translator fills.
type textField struct {
	name     string
	text     media.LocalizedText
	fallback string
}

func (r *Runner) translate(ctx context.Context, st *State) error {
	if !r.opts.Translate {
		return skipStage("translation disabled")
	}
	rec := st.Record
	fields := missingFields(rec)
	batches := []termBatch{
		{set: keywordTerms, terms: missingTags(rec)},
		{set: genreTerms, terms: missingGenres(rec)},
		{set: castTerms, terms: missingCastNames(rec, r.opts.MaxCast)},
	}
	pending := 0
	for _, b := range batches {
		pending += len(b.terms)
	}
	if len(fields) == 0 && pending == 0 {
		return skipStage("no locale field missing")
	}

	for i := range batches {
		batches[i].terms = r.fillTermsFromCache(ctx, rec, batches[i].set, batches[i].terms)
	}
	if r.deps.Generator == nil {
		for _, f := range fields {
			if source := sourceText(f); textutil.ContainsHan(source) {
				f.text.SetIfAbsent(translationTarget, source)
				continue
			}
			r.warn(ctx, st, media.WarningTranslation, fmt.Sprintf("%s not translated: no text generator configured", f.name))
		}
		for _, b := range batches {
			if len(b.terms) > 0 {
				r.warn(ctx, st, media.WarningTranslation,
					fmt.Sprintf("%d %s not translated: no text generator configured", len(b.terms), b.set.name))
			}
		}
		return nil
	}

	filled := 0
	for _, f := range fields {
		ok, err := r.translateField(ctx, f)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.warn(ctx, st, media.WarningTranslation, fmt.Sprintf("%s not translated: %v", f.name, err))
			continue
		}
		if ok {
			filled++
		}
	}
	sent := 0
	for _, b := range batches {
		if err := r.translateTerms(ctx, st, b.set, b.terms); err != nil {
			return err
		}
		sent += len(b.terms)
	}

	r.log(ctx).Debug("translation complete",
		logging.Int("fields_missing", len(fields)),
		logging.Int("fields_filled", filled),
		logging.Int("terms_missing", pending),
		logging.Int("terms_sent", sent))
	return nil
}

// missingFields lists fields with source text but no Chinese value.
func missingFields(rec *media.Record) []textField {
	candidates := []textField{
		{name: "title", text: rec.Titles, fallback: rec.OriginalTitle},
		{name: "overview", text: rec.Overview},
		{name: "tagline", text: rec.Taglines},
	}
	var out []textField
	for _, f := range candidates {
		if f.text == nil || f.text.HasAny(media.LocaleZhCN, media.LocaleZhTW) {
			continue
		}
		if sourceText(f) == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// sourceText picks the text to translate: English first, then any other
// locale, then the fallback.
func sourceText(f textField) string {
	if v := f.text.Get(media.LocaleEnUS); v != "" {
		return v
	}
	if v := f.text.Preferred(); v != "" {
		return v
	}
	return strings.TrimSpace(f.fallback)
}

func (r *Runner) translateField(ctx context.Context, f textField) (bool, error) {
	source := sourceText(f)
	if textutil.ContainsHan(source) {
		return f.text.SetIfAbsent(translationTarget, source), nil
	}
	prompt := fmt.Sprintf("Field: %s\nText:\n%s", f.name, source)
	answer, err := r.deps.Generator.Complete(ctx, translateSystemPrompt, prompt)
	if err != nil {
		return false, err
	}
	answer = cleanAnswer(answer)
	if answer == "" {
		return false, fmt.Errorf("empty translation")
	}
	return f.text.SetIfAbsent(translationTarget, answer), nil
}

func cleanAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	return strings.TrimSpace(strings.Trim(answer, `"'“”「」`))
}

// termSet is a list-valued record field translated in one batch prompt,
// with answers cached per term.
type termSet struct {
	name    string
	system  string
	key     string
	cacheNS string
	apply   func(rec *media.Record, term, translated string)
}

var (
	keywordTerms = termSet{name: "keywords", system: tagSystemPrompt, key: "tags", cacheNS: "llm-tag", apply: setTag}
	genreTerms   = termSet{name: "genres", system: genreSystemPrompt, key: "genres", cacheNS: "llm-genre", apply: setGenre}
	castTerms    = termSet{name: "cast names", system: nameSystemPrompt, key: "names", cacheNS: "llm-name", apply: setCastName}
)

type termBatch struct {
	set   termSet
	terms []string
}

// missingTags lists keywords without a Chinese translation, in record order.
func missingTags(rec *media.Record) []string {
	return missingTerms(rec.Keywords, func(tag string) bool {
		return rec.LocalizedKeywords[tag].HasAny(media.LocaleZhCN, media.LocaleZhTW)
	})
}

// missingGenres lists genres without a Chinese translation, in record order.
func missingGenres(rec *media.Record) []string {
	return missingTerms(rec.Genres, func(genre string) bool {
		return rec.LocalizedGenres[genre].HasAny(media.LocaleZhCN, media.LocaleZhTW)
	})
}

// missingCastNames lists cast names without a Chinese variant, in billing
// order and limited to the first maxCast members.
func missingCastNames(rec *media.Record, maxCast int) []string {
	cast := slices.Clone(rec.Cast)
	slices.SortStableFunc(cast, func(a, b media.Person) int { return a.Order - b.Order })
	if maxCast > 0 && len(cast) > maxCast {
		cast = cast[:maxCast]
	}
	names := make([]string, 0, len(cast))
	translated := map[string]bool{}
	for _, p := range cast {
		names = append(names, p.Name)
		if p.Variants.HasAny(media.LocaleZhCN, media.LocaleZhTW) {
			translated[strings.TrimSpace(p.Name)] = true
		}
	}
	return missingTerms(names, func(name string) bool { return translated[name] })
}

func missingTerms(values []string, done func(string) bool) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		if done(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func termCacheKey(set termSet, term string) string {
	return cache.Key(set.cacheNS, cache.Digest(strings.ToLower(term)), string(translationTarget))
}

func setTag(rec *media.Record, tag, translated string) {
	if rec.LocalizedKeywords == nil {
		rec.LocalizedKeywords = map[string]media.LocalizedText{}
	}
	setLocalized(rec.LocalizedKeywords, tag, translated)
}

func setGenre(rec *media.Record, genre, translated string) {
	if rec.LocalizedGenres == nil {
		rec.LocalizedGenres = map[string]media.LocalizedText{}
	}
	setLocalized(rec.LocalizedGenres, genre, translated)
}

func setLocalized(m map[string]media.LocalizedText, term, translated string) {
	text, ok := m[term]
	if !ok {
		text = media.LocalizedText{}
		m[term] = text
	}
	text.SetIfAbsent(translationTarget, translated)
}

// setCastName fills the Chinese variant of every cast member named name.
func setCastName(rec *media.Record, name, translated string) {
	for i := range rec.Cast {
		p := &rec.Cast[i]
		if strings.TrimSpace(p.Name) != name {
			continue
		}
		if p.Variants == nil {
			p.Variants = media.LocalizedText{}
		}
		p.Variants.SetIfAbsent(translationTarget, translated)
	}
}

// fillTermsFromCache applies cached and Han-script terms and returns the rest.
func (r *Runner) fillTermsFromCache(ctx context.Context, rec *media.Record, set termSet, terms []string) []string {
	var rest []string
	hits := 0
	for _, term := range terms {
		if textutil.ContainsHan(term) {
			set.apply(rec, term, term)
			continue
		}
		data, ok, err := r.deps.Cache.Get(ctx, termCacheKey(set, term))
		if err != nil {
			r.log(ctx).Debug("translation cache read failed",
				logging.String("set", set.name), logging.String("term", term), logging.Error(err))
		}
		if ok && len(data) > 0 {
			set.apply(rec, term, string(data))
			hits++
			continue
		}
		rest = append(rest, term)
	}
	if hits > 0 {
		r.log(ctx).Debug("translation cache hits",
			logging.String("set", set.name), logging.Int("hits", hits), logging.Int("remaining", len(rest)))
	}
	return rest
}

// translateTerms sends every uncached term of a set in one prompt. A
// mismatched answer leaves the terms untranslated.
func (r *Runner) translateTerms(ctx context.Context, st *State, set termSet, terms []string) error {
	if len(terms) == 0 {
		return nil
	}
	prompt, err := jsonString(terms)
	if err != nil {
		return err
	}
	answer, err := r.deps.Generator.Complete(ctx, set.system, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.warn(ctx, st, media.WarningTranslation, fmt.Sprintf("%s translation failed: %v", set.name, err))
		return nil
	}
	var list []string
	var wrapped map[string][]string
	if err := llm.DecodeJSON(answer, &wrapped); err == nil {
		list = wrapped[set.key]
	} else if listErr := llm.DecodeJSON(answer, &list); listErr != nil {
		r.warn(ctx, st, media.WarningTranslation, fmt.Sprintf("%s translation unreadable: %v", set.name, err))
		return nil
	}
	if len(list) != len(terms) {
		r.warn(ctx, st, media.WarningTranslation,
			fmt.Sprintf("%s translation returned %d entries for %d terms", set.name, len(list), len(terms)))
		return nil
	}
	for i, term := range terms {
		translated := cleanAnswer(list[i])
		if translated == "" {
			continue
		}
		set.apply(st.Record, term, translated)
		if err := r.deps.Cache.Put(ctx, termCacheKey(set, term), []byte(translated), r.opts.TagCacheTTL); err != nil {
			r.log(ctx).Debug("translation cache write failed",
				logging.String("set", set.name), logging.String("term", term), logging.Error(err))
		}
	}
	return nil
}

func jsonString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
