package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	t.Run("Should strip known package prefixes", func(t *testing.T) {
		tests := map[string]string{
			"org.apache.commons.commons-lang3":     "commons-lang3",
			"org.apache.poi.poi-ooxml":             "poi-ooxml",
			"org.apache.httpcomponents.httpclient": "httpclient",
			"com.google.guava.guava":               "guava",
			"com.fasterxml.jackson.jackson-core":   "jackson-core",
			"net.sf.jasperreports":                 "jasperreports",
			"javax.mail":                           "mail",
			"com.springsource.org.apache.log4j":    "org.apache.log4j",
			"Org.Apache.Commons.Commons-IO":        "commons-io",
			"org.apache.logging.log4j.log4j-api":   "org.apache.logging.log4j.log4j-api",
		}
		for input, want := range tests {
			assert.Equal(t, want, NormalizeName(input), input)
		}
	})

	t.Run("Should strip module marker suffixes case-insensitively", func(t *testing.T) {
		assert.Equal(t, "commons-io", NormalizeName("commons-io.CommunityCommons.RequiredLib"))
		assert.Equal(t, "poi", NormalizeName("poi.ExcelImporter.Required"))
		assert.Equal(t, "jjwt", NormalizeName("jjwt.requiredlib"))
		assert.Equal(t, "jjwt", NormalizeName("JJWT.REQUIRED"))
	})

	t.Run("Should return unmatched input lower-cased", func(t *testing.T) {
		assert.Equal(t, "mylib", NormalizeName("MyLib"))
		assert.Equal(t, "", NormalizeName(""))
	})

	t.Run("Should be deterministic across repeated calls", func(t *testing.T) {
		inputs := []string{"guava-28.0-jre.jar", "org.apache.poi.poi-5.2.3.jar", "x", "JAVAX.Mail-1.6.jar"}
		for _, input := range inputs {
			first := Identity(input)
			for range 50 {
				assert.Equal(t, first, Identity(input))
			}
		}
	})
}

func TestSplitFilename(t *testing.T) {
	t.Run("Should split base name and version", func(t *testing.T) {
		tests := []struct {
			filename string
			base     string
			version  string
		}{
			{"guava-19.0.jar", "guava", "19.0"},
			{"guava-28.0-jre.jar", "guava", "28.0-jre"},
			{"bcprov-jdk15on-1.60.jar", "bcprov-jdk15on", "1.60"},
			{"commons-io-2.11.0.jar.CommunityCommons.RequiredLib", "commons-io", "2.11.0"},
			{"mylib.jar", "mylib", DefaultVersion},
			{"mylib-core.jar", "mylib-core", DefaultVersion},
		}
		for _, tt := range tests {
			base, version := SplitFilename(tt.filename)
			assert.Equal(t, tt.base, base, tt.filename)
			assert.Equal(t, tt.version, version, tt.filename)
		}
	})
}

func TestIdentity(t *testing.T) {
	t.Run("Should map prefixed and plain names to the same identity", func(t *testing.T) {
		assert.Equal(t, Identity("commons-lang3-3.12.0.jar"), Identity("org.apache.commons.commons-lang3-3.9.jar"))
		assert.Equal(t, "guava", Identity("guava-19.0.jar"))
	})
}

func TestIsArchive(t *testing.T) {
	t.Run("Should detect jar files", func(t *testing.T) {
		assert.True(t, IsArchive("a.jar"))
		assert.True(t, IsArchive("A.JAR"))
		assert.False(t, IsArchive("a.jar.CommunityCommons.RequiredLib"))
		assert.False(t, IsArchive("a.zip"))
	})
}

func TestNamespace(t *testing.T) {
	t.Run("Should return the stripped package prefix", func(t *testing.T) {
		assert.Equal(t, "org.apache.commons.", Namespace("org.apache.commons.commons-lang3"))
		assert.Equal(t, "com.springsource.", Namespace("com.springsource.org.apache.log4j"))
		assert.Equal(t, "javax.", Namespace("JAVAX.mail"))
		assert.Equal(t, "", Namespace("guava"))
	})
}
