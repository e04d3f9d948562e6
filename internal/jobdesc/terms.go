package jobdesc

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const maxKeywords = 8

// knownTerms maps a lowercase spelling to its display form.
var knownTerms = map[string]string{
	"go": "Go", "golang": "Go", "python": "Python", "java": "Java", "kotlin": "Kotlin",
	"scala": "Scala", "rust": "Rust", "c++": "C++", "c#": "C#", ".net": ".NET",
	"javascript": "JavaScript", "typescript": "TypeScript", "node.js": "Node.js", "nodejs": "Node.js",
	"react": "React", "vue": "Vue", "angular": "Angular", "ruby": "Ruby", "rails": "Rails",
	"php": "PHP", "swift": "Swift", "sql": "SQL", "postgres": "PostgreSQL", "postgresql": "PostgreSQL",
	"mysql": "MySQL", "mongodb": "MongoDB", "redis": "Redis", "elasticsearch": "Elasticsearch",
	"kafka": "Kafka", "rabbitmq": "RabbitMQ", "grpc": "gRPC", "graphql": "GraphQL", "rest": "REST",
	"docker": "Docker", "kubernetes": "Kubernetes", "k8s": "Kubernetes", "terraform": "Terraform",
	"ansible": "Ansible", "helm": "Helm", "aws": "AWS", "gcp": "GCP", "azure": "Azure",
	"linux": "Linux", "git": "Git", "ci/cd": "CI/CD", "jenkins": "Jenkins", "spark": "Spark",
	"airflow": "Airflow", "pandas": "pandas", "pytorch": "PyTorch", "tensorflow": "TensorFlow",
	"machine learning": "Machine Learning", "microservices": "Microservices", "prometheus": "Prometheus",
	"grafana": "Grafana", "snowflake": "Snowflake", "dbt": "dbt", "figma": "Figma", "excel": "Excel",
	"tableau": "Tableau", "power bi": "Power BI", "salesforce": "Salesforce", "sap": "SAP",
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a about above after all also an and any are as at be been being both but by
can could do does for from has have having he her here his how i if in into is it its just more most
must no not of on or our out over own per same she should so some such than that the their them then there
these they this those through to too under up very was we were what when where which while who will with
would you your yours able work working team teams role join years year experience strong good great plus
including within across well new based help using use used etc ideal candidate looking skills knowledge
understanding ability requirements responsibilities qualifications preferred required nice`) {
		stopwords[w] = struct{}{}
	}
}

var wordRe = regexp.MustCompile(`[\p{L}][\p{L}\p{N}+#./-]*`)

// SkillTerms returns the distinct technology terms named in text, in order of
// first appearance. Code spans are treated as terms too.
func SkillTerms(text string, code []string) []string {
	lower := strings.ToLower(text)
	type hit struct {
		pos  int
		term string
	}
	var hits []hit
	for spelling, display := range knownTerms {
		if pos := indexWord(lower, spelling); pos >= 0 {
			hits = append(hits, hit{pos: pos, term: display})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].term < hits[j].term
	})

	seen := make(map[string]struct{})
	var out []string
	add := func(term string) {
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	for _, h := range hits {
		add(h.term)
	}
	for _, c := range code {
		c = strings.TrimSpace(c)
		if c == "" || len(c) > 40 {
			continue
		}
		if display, ok := knownTerms[strings.ToLower(c)]; ok {
			c = display
		}
		add(c)
	}
	return out
}

// indexWord finds term in s where it is not part of a longer word.
func indexWord(s, term string) int {
	from := 0
	for {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(term)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return start
		}
		from = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := rune(s[i-1])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '+' && r != '#'
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := rune(s[i])
	if r == '.' {
		// sentence punctuation, not a dotted name
		return i+1 >= len(s) || s[i+1] == ' ' || s[i+1] == '\n'
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
}

// Keywords returns the n most frequent non-stopword words in text.
func Keywords(text string, n int) []string {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		w = strings.TrimRight(w, ".-/")
		if len([]rune(w)) < 3 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		if _, ok := first[w]; !ok {
			first[w] = i
		}
		counts[w]++
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return first[words[i]] < first[words[j]]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
