package discovery

import (
	"bufio"
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

type manifest struct {
	patterns     []string
	technologies []string
	inspect      func(data []byte) []string
}

func (m manifest) matches(p string) bool {
	for _, pattern := range m.patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// manifests are matched in this order for every inspected path.
var manifests = []manifest{
	{patterns: []string{"**/go.mod"}, technologies: []string{"Go"}, inspect: inspectGoMod},
	{patterns: []string{"**/package.json"}, technologies: []string{"Node.js"}, inspect: inspectPackageJSON},
	{patterns: []string{"**/tsconfig.json"}, technologies: []string{"TypeScript"}},
	{patterns: []string{"**/Cargo.toml"}, technologies: []string{"Rust"}},
	{patterns: []string{"**/pyproject.toml"}, technologies: []string{"Python"}, inspect: inspectPyproject},
	{patterns: []string{"**/requirements*.txt"}, technologies: []string{"Python"}, inspect: inspectRequirements},
	{patterns: []string{"**/setup.py", "**/Pipfile"}, technologies: []string{"Python"}},
	{patterns: []string{"**/pom.xml"}, technologies: []string{"Java", "Maven"}},
	{patterns: []string{"**/build.gradle"}, technologies: []string{"Java", "Gradle"}},
	{patterns: []string{"**/build.gradle.kts"}, technologies: []string{"Kotlin", "Gradle"}},
	{patterns: []string{"**/Gemfile"}, technologies: []string{"Ruby"}},
	{patterns: []string{"**/composer.json"}, technologies: []string{"PHP"}},
	{patterns: []string{"**/*.csproj", "**/*.sln"}, technologies: []string{"C#", ".NET"}},
	{patterns: []string{"**/Dockerfile", "**/*.Dockerfile"}, technologies: []string{"Docker"}},
	{patterns: []string{"**/docker-compose*.{yml,yaml}", "**/compose.{yml,yaml}"}, technologies: []string{"Docker Compose"}, inspect: inspectCompose},
	{patterns: []string{"**/*.tf"}, technologies: []string{"Terraform"}},
	{patterns: []string{"**/Chart.yaml"}, technologies: []string{"Helm", "Kubernetes"}},
	{patterns: []string{"**/pubspec.yaml"}, technologies: []string{"Dart"}},
	{patterns: []string{"**/mix.exs"}, technologies: []string{"Elixir"}},
	{patterns: []string{"**/CMakeLists.txt"}, technologies: []string{"C/C++", "CMake"}},
	{patterns: []string{"**/Package.swift"}, technologies: []string{"Swift"}},
}

type dependencyHint struct {
	prefix     string
	technology string
}

var goModuleHints = []dependencyHint{
	{"github.com/gin-gonic/gin", "Gin"},
	{"github.com/labstack/echo", "Echo"},
	{"github.com/gofiber/fiber", "Fiber"},
	{"google.golang.org/grpc", "gRPC"},
	{"connectrpc.com/connect", "Connect RPC"},
	{"github.com/spf13/cobra", "Cobra"},
	{"gorm.io/gorm", "GORM"},
	{"entgo.io/ent", "Ent"},
	{"github.com/jackc/pgx", "PostgreSQL"},
	{"github.com/lib/pq", "PostgreSQL"},
	{"github.com/redis/go-redis", "Redis"},
	{"github.com/prometheus/client_golang", "Prometheus"},
}

var npmHints = map[string]string{
	"react":         "React",
	"vue":           "Vue",
	"@angular/core": "Angular",
	"next":          "Next.js",
	"express":       "Express",
	"svelte":        "Svelte",
	"typescript":    "TypeScript",
	"jest":          "Jest",
	"vitest":        "Vitest",
	"tailwindcss":   "Tailwind CSS",
}

var pythonHints = map[string]string{
	"django":     "Django",
	"flask":      "Flask",
	"fastapi":    "FastAPI",
	"pytest":     "pytest",
	"sqlalchemy": "SQLAlchemy",
	"pydantic":   "Pydantic",
}

var imageHints = []dependencyHint{
	{"postgres", "PostgreSQL"},
	{"mysql", "MySQL"},
	{"mariadb", "MySQL"},
	{"redis", "Redis"},
	{"mongo", "MongoDB"},
	{"kafka", "Kafka"},
	{"rabbitmq", "RabbitMQ"},
	{"elasticsearch", "Elasticsearch"},
	{"minio", "MinIO"},
}

func inspectGoMod(data []byte) []string {
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return nil
	}
	var out []string
	for _, req := range f.Require {
		for _, h := range goModuleHints {
			if strings.HasPrefix(req.Mod.Path, h.prefix) {
				out = append(out, h.technology)
			}
		}
	}
	return out
}

func inspectPackageJSON(data []byte) []string {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	names := make([]string, 0, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for name := range pkg.Dependencies {
		names = append(names, name)
	}
	for name := range pkg.DevDependencies {
		names = append(names, name)
	}
	return lookupNames(names, npmHints)
}

var requirementName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*`)

func pythonPackage(spec string) string {
	return strings.ToLower(requirementName.FindString(strings.TrimSpace(spec)))
}

func inspectPyproject(data []byte) []string {
	var doc struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]interface{} `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil
	}
	var names []string
	for _, d := range doc.Project.Dependencies {
		names = append(names, pythonPackage(d))
	}
	for name := range doc.Tool.Poetry.Dependencies {
		names = append(names, strings.ToLower(name))
	}
	return lookupNames(names, pythonHints)
}

func inspectRequirements(data []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		names = append(names, pythonPackage(line))
	}
	return lookupNames(names, pythonHints)
}

func inspectCompose(data []byte) []string {
	var doc struct {
		Services map[string]struct {
			Image string `yaml:"image"`
		} `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	services := make([]string, 0, len(doc.Services))
	for name := range doc.Services {
		services = append(services, name)
	}
	sort.Strings(services)

	var out []string
	for _, name := range services {
		image := strings.ToLower(doc.Services[name].Image)
		for _, h := range imageHints {
			if strings.Contains(image, h.prefix) {
				out = append(out, h.technology)
			}
		}
	}
	return out
}

// lookupNames maps package names to technologies in sorted name order.
func lookupNames(names []string, hints map[string]string) []string {
	sort.Strings(names)
	var out []string
	for _, n := range names {
		if tech, ok := hints[n]; ok {
			out = append(out, tech)
		}
	}
	return out
}
