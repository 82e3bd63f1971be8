// Package script loads and runs HCL scripts against a host.
//
// A script is made of three block types:
//
//	let "p" { value = example::Pet("Molly") }
//
//	subclass "Cat" {
//	  extends = "example3::Animal"
//	  method "go" {
//	    params = ["n"]
//	    result = join("", [for i in range(n) : "meow! "])
//	  }
//	}
//
//	output "greeting" { value = call(let.p, "getName") }
//
// Subclasses are declared first, let values are evaluated in dependency
// order and outputs are evaluated last, in declaration order.
package script
