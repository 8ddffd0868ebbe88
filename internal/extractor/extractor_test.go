package extractor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractFixture(t *testing.T, lang, name string) ([]*CodeUnit, map[string]*CodeUnit) {
	t.Helper()

	ext, err := NewExtractor(lang)
	require.NoError(t, err)

	units, err := ext.ExtractFromFile(context.Background(), filepath.Join("testdata", name))
	require.NoError(t, err)

	byKey := make(map[string]*CodeUnit)
	for _, u := range units {
		key := u.Name
		if !u.IsType() {
			key = u.Owner + "#" + u.Name
		}
		byKey[key] = u
	}
	return units, byKey
}

func TestExtractor_Go(t *testing.T) {
	units, byKey := extractFixture(t, LangGo, "sample.go")

	t.Run("Overall Count", func(t *testing.T) {
		assert.Len(t, units, 10, "Base, User, Handler, Set and six methods")
		for _, u := range units {
			assert.Equal(t, "sample", u.Package)
			assert.Equal(t, LangGo, u.Language)
			assert.Equal(t, "testdata", u.Scope)
			assert.NotEmpty(t, u.ID)
		}
	})

	t.Run("Structs", func(t *testing.T) {
		base := byKey["Base"]
		require.NotNil(t, base)
		assert.Equal(t, UnitStruct, base.UnitType)
		assert.Equal(t, "sample.Base", base.QualifiedName())
		assert.Equal(t, "// Base is a base struct.", base.RawDoc)

		user := byKey["User"]
		require.NotNil(t, user)
		assert.Equal(t, []string{"Base"}, user.Parents)
	})

	t.Run("Interface Methods", func(t *testing.T) {
		handler := byKey["Handler"]
		require.NotNil(t, handler)
		assert.Equal(t, UnitInterface, handler.UnitType)
		assert.Equal(t, []string{"fmt.Stringer"}, handler.Parents)

		handle := byKey["sample.Handler#Handle"]
		require.NotNil(t, handle)
		assert.Equal(t, "// Handle processes one message.\n// @param string $ctx the request context", handle.RawDoc)

		closeUnit := byKey["sample.Handler#Close"]
		require.NotNil(t, closeUnit)
		assert.Empty(t, closeUnit.RawDoc)
	})

	t.Run("Methods", func(t *testing.T) {
		rename := byKey["sample.User#Rename"]
		require.NotNil(t, rename)
		assert.Equal(t, UnitMethod, rename.UnitType)
		assert.Equal(t, "// Rename changes the display name.\n//\n// @param string $name the new name\n// @return bool whether the name changed", rename.RawDoc)
		assert.Equal(t, "func (u *User) Rename(name string) bool", rename.Signature)

		greet := byKey["sample.User#Greet"]
		require.NotNil(t, greet)
		assert.Empty(t, greet.RawDoc)

		assert.NotNil(t, byKey["sample.Base#Describe"])
		assert.NotNil(t, byKey["sample.Set#Add"], "generic receivers resolve to their base type")
	})
}

func TestExtractor_PHP(t *testing.T) {
	units, byKey := extractFixture(t, LangPHP, "sample.php")

	assert.Len(t, units, 9, "Cart, Priced, HasItems and six named-class methods")

	cart := byKey["Cart"]
	require.NotNil(t, cart)
	assert.Equal(t, UnitClass, cart.UnitType)
	assert.Equal(t, `Acme\Shop`, cart.Package)
	assert.Equal(t, `Acme\Shop\Cart`, cart.QualifiedName())
	assert.Equal(t, []string{"BaseCart", "Priced", `\Countable`, "HasItems"}, cart.Parents)
	assert.Contains(t, cart.RawDoc, "A shopping cart.")

	add := byKey[`Acme\Shop\Cart#add`]
	require.NotNil(t, add)
	assert.Equal(t, "/**\n     * Adds two numbers.\n     * @param int $a first\n     * @param int $b second\n     * @return int sum\n     */", add.RawDoc)

	assert.Empty(t, byKey[`Acme\Shop\Cart#count`].RawDoc)
	assert.Empty(t, byKey[`Acme\Shop\Cart#reset`].RawDoc, "line comments are not doc comments")
	assert.Contains(t, byKey[`Acme\Shop\Cart#price`].RawDoc, "Builds the price.", "attributes sit between doc and method")

	assert.Equal(t, UnitInterface, byKey["Priced"].UnitType)
	assert.Equal(t, "/** @return float the price */", byKey[`Acme\Shop\Priced#price`].RawDoc)
	assert.Equal(t, UnitTrait, byKey["HasItems"].UnitType)
	assert.NotNil(t, byKey[`Acme\Shop\HasItems#items`])

	_, hidden := byKey[`Acme\Shop\HasItems#hidden`]
	assert.False(t, hidden, "anonymous class methods have no owner")
}

func TestExtractor_PHPNamespacePerDeclaration(t *testing.T) {
	ext, err := NewExtractor(LangPHP)
	require.NoError(t, err)

	src := "<?php\n" +
		"namespace First;\n\n" +
		"class A\n{\n    public function run() {}\n}\n\n" +
		"namespace Second;\n\n" +
		"class B\n{\n    public function run() {}\n}\n"
	units, err := ext.ExtractFromSource(context.Background(), "multi.php", []byte(src))
	require.NoError(t, err)

	owners := map[string]string{}
	for _, u := range units {
		if u.IsType() {
			owners[u.QualifiedName()] = u.Package
		} else {
			owners[u.Owner+"#"+u.Name] = u.Package
		}
	}
	assert.Equal(t, map[string]string{
		`First\A`:      "First",
		`First\A#run`:  "First",
		`Second\B`:     "Second",
		`Second\B#run`: "Second",
	}, owners)

	braced := "<?php\n" +
		"namespace Outer\\Inner {\n    class C {}\n}\n\n" +
		"namespace {\n    class D {}\n}\n"
	units, err = ext.ExtractFromSource(context.Background(), "braced.php", []byte(braced))
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, `Outer\Inner\C`, units[0].QualifiedName())
	assert.Equal(t, "D", units[1].QualifiedName(), "the unnamed namespace is global")
}

func TestLanguageForPath(t *testing.T) {
	assert.Equal(t, LangGo, LanguageForPath("a/b.go"))
	assert.Equal(t, "", LanguageForPath("a/b_test.go"))
	assert.Equal(t, LangPHP, LanguageForPath("src/Cart.PHP"))
	assert.Equal(t, "", LanguageForPath("README.md"))
	assert.Equal(t, []string{".go", ".php"}, SupportedExtensions())
}

func TestNewExtractor_Unsupported(t *testing.T) {
	_, err := NewExtractor("cobol")
	assert.EqualError(t, err, "unsupported language: cobol")
}

func TestStableID_Deterministic(t *testing.T) {
	u := &CodeUnit{Language: LangPHP, Filepath: "a.php", UnitType: UnitMethod, Owner: "A", Name: "x", Signature: "public  function x()"}
	v := *u
	v.Signature = "public function x()"

	assert.Equal(t, StableID(u), StableID(&v), "whitespace in signatures is canonicalized")
	v.Owner = "B"
	assert.NotEqual(t, StableID(u), StableID(&v))
}
