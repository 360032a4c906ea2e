package xmltree_test

import (
	"fmt"
	"log"

	"github.com/nyxtree/go-xml/xmltree"
)

func ExampleParse() {
	data := `
	  <Staff>
        <Person>
            <FullName>Ira Glass</FullName>
        </Person>
        <Person>
            <FullName>Tom Magliozzi</FullName>
        </Person>
    </Staff>
	`
	doc, err := xmltree.Parse([]byte(data))
	if err != nil {
		log.Fatal(err)
	}
	for _, person := range doc.RootElement().ChildElements() {
		name := person.FirstChild().NextSibling()
		fmt.Println(name.TextContent())
	}

	// Output:
	// Ira Glass
	// Tom Magliozzi
}

func ExampleNode_ResolveQName() {
	data := `
    <collection xmlns:ns="http://ns1.net/">
      <record xmlns:ns="http://ns2.net/">
        <name>Old Town</name>
      </record>
    </collection>
	`
	doc, err := xmltree.Parse([]byte(data))
	if err != nil {
		log.Fatal(err)
	}
	root := doc.RootElement()
	record := root.ChildElements()[0]

	rootURI, _, _ := root.ResolveQName("ns:foo")
	recordURI, _, _ := record.ResolveQName("ns:foo")
	fmt.Println(rootURI)
	fmt.Println(recordURI)

	// Output:
	// http://ns1.net/
	// http://ns2.net/
}
